package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"harvester/internal/services/harvest/domain"
)

func init() {
	RegisterAggregator("nss", newNSS)
}

// nss relays report requests through a national statistics server
// aggregator: the request goes to the aggregator's service URL with the
// aggregator's API key, carrying the provider's customer identity as
// query parameters
type nss struct {
	provider   domain.Provider
	aggregator domain.AggregatorSetting
	http       *http.Client
	ua         string
}

func newNSS(p domain.Provider, a domain.AggregatorSetting, opt Options) domain.Endpoint {
	opt = opt.withDefaults()
	return &nss{
		provider:   p,
		aggregator: a,
		http:       &http.Client{Timeout: opt.Timeout},
		ua:         opt.UserAgent,
	}
}

// BuildURL is pure; the exact relayed request URL
func (e *nss) BuildURL(reportCode, begin, end string) string {
	cred := e.provider.SushiCredentials
	return fmt.Sprintf(
		"%s?APIKey=%s&RequestorID=%s&CustomerID=%s&Report=%s&Release=%d&BeginDate=%s&EndDate=%s",
		strings.TrimSuffix(e.aggregator.ServiceURL, "/"),
		url.QueryEscape(e.aggregator.APIKey),
		url.QueryEscape(cred.RequestorID),
		url.QueryEscape(cred.CustomerID),
		url.QueryEscape(reportCode),
		e.provider.HarvestingConfig.ReportRelease,
		url.QueryEscape(begin),
		url.QueryEscape(end),
	)
}

// FetchReport retrieves one report for an inclusive date range via the aggregator
func (e *nss) FetchReport(ctx context.Context, reportCode, begin, end string) (json.RawMessage, error) {
	return fetchReport(ctx, e.http, e.ua, e.BuildURL(reportCode, begin, end))
}
