// Package domain holds the core types and ports for the harvest engine
package domain

import (
	"encoding/json"

	"harvester/internal/core/period"
)

// HarvestingStatus toggles harvesting for a provider
type HarvestingStatus string

// HarvestVia selects how reports are retrieved
type HarvestVia string

const (
	// HarvestingActive enables harvesting for a provider
	HarvestingActive HarvestingStatus = "active"

	// HarvestingInactive disables harvesting for a provider
	HarvestingInactive HarvestingStatus = "inactive"

	// ViaSushi fetches directly from the provider's SUSHI endpoint
	ViaSushi HarvestVia = "sushi"

	// ViaAggregator relays through a configured aggregator
	ViaAggregator HarvestVia = "aggregator"
)

// SushiCredentials identify the tenant against a reporting service
type SushiCredentials struct {
	CustomerID    string `json:"customerId" validate:"required"`
	RequestorID   string `json:"requestorId,omitempty"`
	APIKey        string `json:"apiKey,omitempty"`
	RequestorName string `json:"requestorName,omitempty"`
	RequestorMail string `json:"requestorMail,omitempty"`
}

// SushiConfig holds the direct-endpoint settings of a provider
type SushiConfig struct {
	ServiceType string `json:"serviceType" validate:"required"`
	ServiceURL  string `json:"serviceUrl,omitempty"`
}

// AggregatorRef points at an aggregator setting by id
type AggregatorRef struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	VendorCode string `json:"vendorCode,omitempty"`
}

// HarvestingConfig tunes harvesting for one provider
// Start/End are "YYYY-MM" period strings; End empty means open-ended
type HarvestingConfig struct {
	Status           HarvestingStatus `json:"harvestingStatus" validate:"required,oneof=active inactive"`
	Via              HarvestVia       `json:"harvestVia,omitempty" validate:"omitempty,oneof=sushi aggregator"`
	SushiConfig      *SushiConfig     `json:"sushiConfig,omitempty"`
	Aggregator       *AggregatorRef   `json:"aggregator,omitempty"`
	ReportRelease    int              `json:"reportRelease,omitempty"`
	Start            string           `json:"harvestingStart,omitempty" validate:"omitempty,datetime=2006-01"`
	End              string           `json:"harvestingEnd,omitempty" validate:"omitempty,datetime=2006-01"`
	RequestedReports []string         `json:"requestedReports,omitempty"`
}

// Provider is one external reporting source configured for the tenant.
// Created and updated externally; read-only to the harvester
type Provider struct {
	ID               string           `json:"id"`
	Label            string           `json:"label" validate:"required"`
	PlatformID       string           `json:"platformId,omitempty"`
	SushiCredentials SushiCredentials `json:"sushiCredentials"`
	HarvestingConfig HarvestingConfig `json:"harvestingConfig" validate:"required"`
}

// ServiceType returns the configured service type or ""
func (p Provider) ServiceType() string {
	if p.HarvestingConfig.SushiConfig == nil {
		return ""
	}
	return p.HarvestingConfig.SushiConfig.ServiceType
}

// AggregatorSetting holds resolved aggregator connection details.
// Fetched on demand, never cached across runs
type AggregatorSetting struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	ServiceType string `json:"serviceType"`
	ServiceURL  string `json:"serviceUrl"`
	APIKey      string `json:"apiKey,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
}

// CounterReport is the normalized report record persisted downstream.
// At most one exists per (providerId, reportName, yearMonth); PostReport's
// create-or-update keeps that invariant in storage
type CounterReport struct {
	ID           string          `json:"id,omitempty"`
	ProviderID   string          `json:"providerId"`
	ReportName   string          `json:"reportName"`
	YearMonth    string          `json:"yearMonth"`
	Release      string          `json:"release,omitempty"`
	CustomerID   string          `json:"customerId,omitempty"`
	PlatformID   string          `json:"platformId,omitempty"`
	Report       json.RawMessage `json:"report,omitempty"`
	DownloadTime string          `json:"downloadTime,omitempty"`
}

// FetchItem is the unit of reconciliation and fetch dispatch: one report
// code over one inclusive date range. Plain comparable struct; two items
// are equal iff all three fields match
type FetchItem struct {
	ReportCode string
	Begin      string
	End        string
}

// ItemOf builds the FetchItem covering one reporting period
func ItemOf(code string, p period.Period) FetchItem {
	return FetchItem{ReportCode: code, Begin: p.FirstDay(), End: p.LastDay()}
}

// ItemOutcome is the per-FetchItem result of a provider run
type ItemOutcome struct {
	Item FetchItem
	Err  error
}

// Failed reports whether the item failed
func (o ItemOutcome) Failed() bool { return o.Err != nil }

// RunStatus classifies an aggregated result
type RunStatus string

const (
	// RunOK means every attempted unit succeeded
	RunOK RunStatus = "ok"

	// RunPartial means some units succeeded and some failed
	RunPartial RunStatus = "partial"

	// RunFailed means no unit succeeded
	RunFailed RunStatus = "failed"
)

// ProviderResult aggregates one provider's run
// Err is set for resolver/reconciler failures that aborted the run before
// any fetch; Items carries per-item outcomes otherwise
type ProviderResult struct {
	ProviderID string
	Label      string
	Items      []ItemOutcome
	Err        error
}

// Status derives the provider verdict
func (r ProviderResult) Status() RunStatus {
	if r.Err != nil {
		return RunFailed
	}
	var failed int
	for _, it := range r.Items {
		if it.Failed() {
			failed++
		}
	}
	switch {
	case failed == 0:
		return RunOK
	case failed == len(r.Items):
		return RunFailed
	default:
		return RunPartial
	}
}

// RunReport is the terminal result of a triggered run. It lists every
// provider attempted; failures are carried inside, never thrown past the
// trigger boundary
type RunReport struct {
	RunID     string
	Tenant    string
	Providers []ProviderResult
	Err       error // set when the provider list itself could not be loaded
}

// Status derives the overall verdict across providers
func (r RunReport) Status() RunStatus {
	if r.Err != nil {
		return RunFailed
	}
	var failed int
	for _, p := range r.Providers {
		if p.Status() == RunFailed {
			failed++
		}
	}
	switch {
	case failed == 0:
		return RunOK
	case failed == len(r.Providers) && len(r.Providers) > 0:
		return RunFailed
	default:
		return RunPartial
	}
}
