package folio

import (
	"context"
	"fmt"
	"net/url"

	"harvester/internal/core/period"
	"harvester/internal/services/harvest/domain"
)

// queries use the backend's CQL dialect; single = is a CQL term match,
// == is an exact match
const activeProvidersQuery = "(harvestingConfig.harvestingStatus==active)"

// the client is the concrete implementation of every storage-facing port
var (
	_ domain.ProviderStorage   = (*Client)(nil)
	_ domain.AggregatorStorage = (*Client)(nil)
	_ domain.TenantDirectory   = (*Client)(nil)
	_ domain.ConfigStore       = (*Client)(nil)
)

// ActiveProviders lists every provider with active harvesting status
func (c *Client) ActiveProviders(ctx context.Context) ([]domain.Provider, error) {
	q := url.Values{}
	q.Set("query", activeProvidersQuery)
	q.Set("limit", "2147483647")
	q.Set("offset", "0")

	b, err := c.get(ctx, c.opts.ProviderPath, q)
	if err != nil {
		return nil, err
	}
	var page providersPage
	if err := decodeJSON(b, "provider collection", &page); err != nil {
		return nil, err
	}
	return page.UsageDataProviders, nil
}

// ProviderByID loads one provider
func (c *Client) ProviderByID(ctx context.Context, id string) (domain.Provider, error) {
	b, err := c.get(ctx, c.opts.ProviderPath+"/"+id, nil)
	if err != nil {
		return domain.Provider{}, err
	}
	var p domain.Provider
	if err := decodeJSON(b, "provider "+id, &p); err != nil {
		return domain.Provider{}, err
	}
	return p, nil
}

// StoredReports lists tiny report records for provider+code within [begin, end]
func (c *Client) StoredReports(
	ctx context.Context,
	providerID, reportCode string,
	begin, end period.Period,
) ([]domain.CounterReport, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf(
		"(providerId=%s AND reportName==%s AND yearMonth>=%s AND yearMonth<=%s)",
		providerID, reportCode, begin.String(), end.String(),
	))
	q.Set("tiny", "true")
	q.Set("limit", "2147483647")
	q.Set("offset", "0")

	b, err := c.get(ctx, c.opts.ReportsPath, q)
	if err != nil {
		return nil, err
	}
	var page reportsPage
	if err := decodeJSON(b, "report collection", &page); err != nil {
		return nil, err
	}
	return page.CounterReports, nil
}

// ReportID resolves the stored record id for (providerId, reportName, yearMonth)
func (c *Client) ReportID(ctx context.Context, providerID, reportCode, yearMonth string) (string, bool, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf(
		"(providerId=%s AND yearMonth=%s AND reportName==%s)",
		providerID, yearMonth, reportCode,
	))
	q.Set("tiny", "true")

	b, err := c.get(ctx, c.opts.ReportsPath, q)
	if err != nil {
		return "", false, err
	}
	var page reportsPage
	if err := decodeJSON(b, "report collection", &page); err != nil {
		return "", false, err
	}
	if len(page.CounterReports) == 0 {
		return "", false, nil
	}
	return page.CounterReports[0].ID, true, nil
}

// CreateReport inserts a new report record
func (c *Client) CreateReport(ctx context.Context, rec domain.CounterReport) error {
	return c.send(ctx, "POST", c.opts.ReportsPath, rec)
}

// UpdateReport replaces the record with the given id
func (c *Client) UpdateReport(ctx context.Context, id string, rec domain.CounterReport) error {
	rec.ID = id
	return c.send(ctx, "PUT", c.opts.ReportsPath+"/"+id, rec)
}
