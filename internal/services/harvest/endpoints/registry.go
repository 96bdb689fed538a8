package endpoints

import (
	"sort"
	"sync"

	perr "harvester/internal/platform/errors"
	"harvester/internal/services/harvest/domain"
)

// DirectFactory builds an endpoint that talks to the provider's own service
type DirectFactory func(p domain.Provider, opt Options) domain.Endpoint

// AggregatorFactory builds an endpoint that relays through an aggregator
type AggregatorFactory func(p domain.Provider, a domain.AggregatorSetting, opt Options) domain.Endpoint

var (
	regMu       sync.RWMutex
	directs     = map[string]DirectFactory{}
	aggregators = map[string]AggregatorFactory{}
)

// RegisterDirect makes a direct endpoint implementation available under the
// given service type. Implementations call it from init, like sql drivers.
// Panics on duplicate or nil registration
func RegisterDirect(serviceType string, f DirectFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	if f == nil {
		panic("endpoints: RegisterDirect with nil factory")
	}
	if _, dup := directs[serviceType]; dup {
		panic("endpoints: RegisterDirect called twice for type " + serviceType)
	}
	directs[serviceType] = f
}

// RegisterAggregator makes an aggregator endpoint implementation available
// under the given service type
func RegisterAggregator(serviceType string, f AggregatorFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	if f == nil {
		panic("endpoints: RegisterAggregator with nil factory")
	}
	if _, dup := aggregators[serviceType]; dup {
		panic("endpoints: RegisterAggregator called twice for type " + serviceType)
	}
	aggregators[serviceType] = f
}

// Direct resolves a direct endpoint for the provider's service type
func Direct(serviceType string, p domain.Provider, opt Options) (domain.Endpoint, error) {
	regMu.RLock()
	f, ok := directs[serviceType]
	regMu.RUnlock()
	if !ok {
		return nil, perr.Validationf("No service implementation found for type %s", serviceType)
	}
	return f(p, opt), nil
}

// Aggregated resolves an aggregator endpoint for the aggregator's service type
func Aggregated(serviceType string, p domain.Provider, a domain.AggregatorSetting, opt Options) (domain.Endpoint, error) {
	regMu.RLock()
	f, ok := aggregators[serviceType]
	regMu.RUnlock()
	if !ok {
		return nil, perr.Validationf("No service implementation found for type %s", serviceType)
	}
	return f(p, a, opt), nil
}

// Types reports every registered service type, sorted, direct and
// aggregator merged. Useful for startup logging
func Types() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	seen := map[string]struct{}{}
	for t := range directs {
		seen[t] = struct{}{}
	}
	for t := range aggregators {
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
