// Package schedule keeps the per-tenant periodic harvest configuration
// and computes when the next run is due. The engine that actually fires
// at that instant lives outside this module and polls NextRun
package schedule

import (
	"sync"
	"time"

	perr "harvester/internal/platform/errors"
)

// Interval is the spacing between periodic harvest runs
type Interval string

const (
	// IntervalDaily runs once a day
	IntervalDaily Interval = "daily"

	// IntervalWeekly runs once a week
	IntervalWeekly Interval = "weekly"

	// IntervalMonthly runs once a month, calendar aware
	IntervalMonthly Interval = "monthly"
)

// Valid reports whether i is a known interval
func (i Interval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// PeriodicConfig schedules automatic harvesting for one tenant
type PeriodicConfig struct {
	Tenant        string
	StartAt       time.Time
	Interval      Interval
	LastTriggered time.Time // zero until a run has fired
}

// NextRun returns the first scheduled instant at or after StartAt that
// follows the last trigger. Before any trigger it is StartAt itself
func (c PeriodicConfig) NextRun() time.Time {
	next := c.StartAt
	if c.LastTriggered.IsZero() {
		return next
	}
	for !next.After(c.LastTriggered) {
		next = c.advance(next)
	}
	return next
}

// Due reports whether a run should fire at now
func (c PeriodicConfig) Due(now time.Time) bool {
	return !now.Before(c.NextRun())
}

func (c PeriodicConfig) advance(t time.Time) time.Time {
	switch c.Interval {
	case IntervalWeekly:
		return t.AddDate(0, 0, 7)
	case IntervalMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Registry holds periodic configs keyed by tenant. Safe for concurrent use
type Registry struct {
	mu   sync.RWMutex
	byTn map[string]PeriodicConfig
}

// NewRegistry builds an empty registry
func NewRegistry() *Registry {
	return &Registry{byTn: map[string]PeriodicConfig{}}
}

// Upsert stores or replaces the tenant's config
func (r *Registry) Upsert(c PeriodicConfig) error {
	if c.Tenant == "" {
		return perr.Validationf("tenant is required")
	}
	if c.StartAt.IsZero() {
		return perr.Validationf("start time is required")
	}
	if !c.Interval.Valid() {
		return perr.Validationf("unknown interval %q", c.Interval)
	}
	r.mu.Lock()
	r.byTn[c.Tenant] = c
	r.mu.Unlock()
	return nil
}

// Get returns the tenant's config
func (r *Registry) Get(tenant string) (PeriodicConfig, error) {
	r.mu.RLock()
	c, ok := r.byTn[tenant]
	r.mu.RUnlock()
	if !ok {
		return PeriodicConfig{}, perr.NotFoundf("no periodic config for tenant %s", tenant)
	}
	return c, nil
}

// Delete removes the tenant's config; removing a missing one is an error
func (r *Registry) Delete(tenant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTn[tenant]; !ok {
		return perr.NotFoundf("no periodic config for tenant %s", tenant)
	}
	delete(r.byTn, tenant)
	return nil
}

// MarkTriggered records that the tenant's run fired at now
func (r *Registry) MarkTriggered(tenant string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byTn[tenant]
	if !ok {
		return perr.NotFoundf("no periodic config for tenant %s", tenant)
	}
	c.LastTriggered = now
	r.byTn[tenant] = c
	return nil
}

// Due lists every tenant whose next run is at or before now
func (r *Registry) Due(now time.Time) []PeriodicConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PeriodicConfig
	for _, c := range r.byTn {
		if c.Due(now) {
			out = append(out, c)
		}
	}
	return out
}
