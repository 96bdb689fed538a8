package folio

import "harvester/internal/services/harvest/domain"

// providersPage is the paged provider collection envelope
type providersPage struct {
	UsageDataProviders []domain.Provider `json:"usageDataProviders"`
	TotalRecords       int               `json:"totalRecords"`
}

// reportsPage is the paged report record envelope
type reportsPage struct {
	CounterReports []domain.CounterReport `json:"counterReports"`
	TotalRecords   int                    `json:"totalRecords"`
}

// tenantDesc is one entry of the tenant directory listing
type tenantDesc struct {
	ID string `json:"id"`
}

// interfaceDesc is one declared capability interface of a tenant
type interfaceDesc struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// configPage is the config entry envelope
type configPage struct {
	Configs      []configEntry `json:"configs"`
	TotalRecords int           `json:"totalRecords"`
}

type configEntry struct {
	Module     string `json:"module"`
	ConfigName string `json:"configName"`
	Value      string `json:"value"`
}
