package domain

import (
	"context"
	"encoding/json"

	"harvester/internal/core/period"
)

// RunnerPort is the public port exposed by the harvest module. It is what
// the periodic trigger source and the CLI call; results never carry an
// error past this boundary except through RunReport
type RunnerPort interface {
	// RunAll harvests every active provider of the scoped tenant
	RunAll(ctx context.Context) RunReport

	// RunOne harvests a single provider by id
	RunOne(ctx context.Context, providerID string) RunReport
}

// Endpoint is the protocol-client capability a resolved service type
// exposes: fetch one report for one inclusive date range.
// BuildURL is pure and deterministic so tests and logs can assert on the
// exact request that would be issued
type Endpoint interface {
	FetchReport(ctx context.Context, reportCode, begin, end string) (json.RawMessage, error)
	BuildURL(reportCode, begin, end string) string
}

// ProviderStorage is the remote store of providers and report records
type ProviderStorage interface {
	// ActiveProviders lists providers with active harvesting status
	ActiveProviders(ctx context.Context) ([]Provider, error)

	// ProviderByID loads a single provider
	ProviderByID(ctx context.Context, id string) (Provider, error)

	// StoredReports lists report records for provider+code within
	// [begin, end], tiny records only (no payloads)
	StoredReports(ctx context.Context, providerID, reportCode string, begin, end period.Period) ([]CounterReport, error)

	// ReportID resolves the id of the record stored for the given key,
	// ok=false when none exists
	ReportID(ctx context.Context, providerID, reportCode, yearMonth string) (string, bool, error)

	// CreateReport inserts a new record
	CreateReport(ctx context.Context, rec CounterReport) error

	// UpdateReport replaces the record with the given id
	UpdateReport(ctx context.Context, id string, rec CounterReport) error
}

// AggregatorStorage resolves aggregator connection settings by id
type AggregatorStorage interface {
	AggregatorSetting(ctx context.Context, id string) (AggregatorSetting, error)
}

// TenantDirectory enumerates tenants and their declared capabilities
type TenantDirectory interface {
	Tenants(ctx context.Context) ([]string, error)

	// HasHarvesterInterface fails with a not-found error when the tenant
	// has not enabled the harvester capability interface
	HasHarvesterInterface(ctx context.Context, tenant string) error
}

// ConfigStore queries per-tenant configuration entries.
// ok=false means no entry matched; an error means the query itself failed
type ConfigStore interface {
	ConfigValue(ctx context.Context, module, name string) (value string, ok bool, err error)
}
