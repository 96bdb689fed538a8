// Package service implements the harvest engine: resolving the protocol
// client for a provider, reconciling which report months are missing, and
// orchestrating fetch-and-store runs
package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"harvester/internal/core/period"
	perr "harvester/internal/platform/errors"
	"harvester/internal/platform/logger"
	"harvester/internal/services/harvest/domain"
	"harvester/internal/services/harvest/endpoints"
)

// ModConfigModule and ModConfigWorkerKey address the per-tenant
// worker-count override in the remote configuration store
const (
	ModConfigModule    = "ERM-USAGE-HARVESTER"
	ModConfigWorkerKey = "workerCount"

	// DefaultWorkers bounds the per-provider fetch fan-out
	DefaultWorkers = 4
)

// Deps are the collaborators a Harvester needs. All remote state lives
// behind these ports
type Deps struct {
	Providers   domain.ProviderStorage
	Aggregators domain.AggregatorStorage
	Tenants     domain.TenantDirectory
	Configs     domain.ConfigStore
}

// Options tunes a Harvester instance
type Options struct {
	Tenant   string
	Workers  int
	Endpoint endpoints.Options
}

// Harvester is the engine for one tenant. Safe for concurrent use
type Harvester struct {
	deps     Deps
	tenant   string
	workers  int
	epOpts   endpoints.Options
	validate *validator.Validate
	log      *logger.Logger

	nowUTC func() time.Time // seam for tests
}

// New builds a tenant-scoped Harvester
func New(deps Deps, opt Options) *Harvester {
	workers := opt.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Harvester{
		deps:     deps,
		tenant:   opt.Tenant,
		workers:  workers,
		epOpts:   opt.Endpoint,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger.Named("harvest"),
		nowUTC:   func() time.Time { return time.Now().UTC() },
	}
}

// Tenant returns the tenant this engine is scoped to
func (h *Harvester) Tenant() string { return h.tenant }

// ActiveProviders lists the tenant's providers with active harvesting status
func (h *Harvester) ActiveProviders(ctx context.Context) ([]domain.Provider, error) {
	provs, err := h.deps.Providers.ActiveProviders(ctx)
	if err != nil {
		return nil, err
	}
	logger.C(ctx).Debug().Int("count", len(provs)).Msg("active providers loaded")
	return provs, nil
}

// AggregatorSetting resolves the aggregator configured for the provider.
// A missing reference or blank id fails before any network call
func (h *Harvester) AggregatorSetting(ctx context.Context, p domain.Provider) (domain.AggregatorSetting, error) {
	ref := p.HarvestingConfig.Aggregator
	if ref == nil || ref.ID == "" {
		return domain.AggregatorSetting{}, perr.Validationf("no aggregator found for provider %s", p.Label)
	}
	return h.deps.Aggregators.AggregatorSetting(ctx, ref.ID)
}

// ServiceEndpoint resolves the protocol client for the provider: through
// the configured aggregator when harvestVia says so, direct otherwise
func (h *Harvester) ServiceEndpoint(ctx context.Context, p domain.Provider) (domain.Endpoint, error) {
	if err := h.validateProvider(p); err != nil {
		return nil, err
	}
	if p.HarvestingConfig.Via == domain.ViaAggregator {
		setting, err := h.AggregatorSetting(ctx, p)
		if err != nil {
			return nil, err
		}
		return endpoints.Aggregated(setting.ServiceType, p, setting, h.epOpts)
	}
	return endpoints.Direct(p.ServiceType(), p, h.epOpts)
}

func (h *Harvester) validateProvider(p domain.Provider) error {
	if err := h.validate.Struct(p); err != nil {
		return perr.Wrap(err, perr.ErrorCodeValidation, "invalid provider configuration")
	}
	return nil
}

// FetchList computes the missing report units for the provider: every
// (requested report code, month in the harvesting window) pair without a
// stored record. An inactive provider fails before any network call
func (h *Harvester) FetchList(ctx context.Context, p domain.Provider) ([]domain.FetchItem, error) {
	hc := p.HarvestingConfig
	if hc.Status != domain.HarvestingActive {
		return nil, perr.Validationf("harvesting not active for provider %s", p.ID)
	}

	start, err := period.Parse(hc.Start)
	if err != nil {
		return nil, perr.Validationf("invalid harvesting start for provider %s: %s", p.ID, hc.Start)
	}
	end := period.Current()
	if hc.End != "" {
		e, err := period.Parse(hc.End)
		if err != nil {
			return nil, perr.Validationf("invalid harvesting end for provider %s: %s", p.ID, hc.End)
		}
		if e.Before(end) {
			end = e
		}
	}

	window := period.Range(start, end)
	var items []domain.FetchItem
	for _, code := range hc.RequestedReports {
		stored, err := h.deps.Providers.StoredReports(ctx, p.ID, code, start, end)
		if err != nil {
			return nil, err
		}
		covered := make(map[string]struct{}, len(stored))
		for _, rec := range stored {
			covered[rec.YearMonth] = struct{}{}
		}
		for _, month := range window {
			if _, ok := covered[month.String()]; ok {
				continue
			}
			items = append(items, domain.ItemOf(code, month))
		}
	}
	logger.C(ctx).Debug().
		Str("provider_id", p.ID).
		Int("missing", len(items)).
		Msg("fetch list computed")
	return items, nil
}

// CreateCounterReport assembles the storage record for a fetched payload.
// Pure; the download timestamp comes from the engine clock
func (h *Harvester) CreateCounterReport(p domain.Provider, reportCode string, month period.Period, payload json.RawMessage) domain.CounterReport {
	return domain.CounterReport{
		ProviderID:   p.ID,
		ReportName:   reportCode,
		YearMonth:    month.String(),
		Release:      strconv.Itoa(p.HarvestingConfig.ReportRelease),
		CustomerID:   p.SushiCredentials.CustomerID,
		PlatformID:   p.PlatformID,
		Report:       payload,
		DownloadTime: h.nowUTC().Format(time.RFC3339),
	}
}

// PostReport stores the record, updating in place when a record already
// exists for the same (provider, report name, month) key
func (h *Harvester) PostReport(ctx context.Context, rec domain.CounterReport) error {
	id, ok, err := h.deps.Providers.ReportID(ctx, rec.ProviderID, rec.ReportName, rec.YearMonth)
	if err != nil {
		return err
	}
	if ok {
		return h.deps.Providers.UpdateReport(ctx, id, rec)
	}
	return h.deps.Providers.CreateReport(ctx, rec)
}

// ModConfigValue resolves a tenant configuration entry, falling back to
// def when the entry is absent or the store is unreachable. An entry that
// exists but cannot be decoded is an error the caller must see
func (h *Harvester) ModConfigValue(ctx context.Context, module, name, def string) (string, error) {
	value, ok, err := h.deps.Configs.ConfigValue(ctx, module, name)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeDecode) {
			return "", err
		}
		logger.C(ctx).Warn().Err(err).
			Str("module", module).
			Str("name", name).
			Msg("config store unreachable, using default")
		return def, nil
	}
	if !ok || value == "" {
		return def, nil
	}
	return value, nil
}

// runWorkers resolves the effective fan-out width for a run, honoring the
// per-tenant override when one is configured
func (h *Harvester) runWorkers(ctx context.Context) int {
	v, err := h.ModConfigValue(ctx, ModConfigModule, ModConfigWorkerKey, strconv.Itoa(h.workers))
	if err != nil {
		return h.workers
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return h.workers
	}
	return n
}
