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
	RegisterDirect("cs41", newCS41)
}

// cs41 fetches COUNTER 4 reports straight from the provider's own SUSHI
// endpoint using the provider's credentials
type cs41 struct {
	provider domain.Provider
	http     *http.Client
	ua       string
}

func newCS41(p domain.Provider, opt Options) domain.Endpoint {
	opt = opt.withDefaults()
	return &cs41{
		provider: p,
		http:     &http.Client{Timeout: opt.Timeout},
		ua:       opt.UserAgent,
	}
}

// BuildURL is pure; the exact request URL for a report code and range
func (e *cs41) BuildURL(reportCode, begin, end string) string {
	base := ""
	if e.provider.HarvestingConfig.SushiConfig != nil {
		base = strings.TrimSuffix(e.provider.HarvestingConfig.SushiConfig.ServiceURL, "/")
	}
	cred := e.provider.SushiCredentials
	return fmt.Sprintf(
		"%s?Report=%s&Release=%d&RequestorID=%s&CustomerID=%s&BeginDate=%s&EndDate=%s",
		base,
		url.QueryEscape(reportCode),
		e.provider.HarvestingConfig.ReportRelease,
		url.QueryEscape(cred.RequestorID),
		url.QueryEscape(cred.CustomerID),
		url.QueryEscape(begin),
		url.QueryEscape(end),
	)
}

// FetchReport retrieves one report for an inclusive date range
func (e *cs41) FetchReport(ctx context.Context, reportCode, begin, end string) (json.RawMessage, error) {
	return fetchReport(ctx, e.http, e.ua, e.BuildURL(reportCode, begin, end))
}
