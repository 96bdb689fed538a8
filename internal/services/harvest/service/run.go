package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"harvester/internal/core/period"
	perr "harvester/internal/platform/errors"
	"harvester/internal/platform/logger"
	"harvester/internal/services/harvest/domain"
)

// monthOf recovers the reporting period from an item's begin date
func monthOf(item domain.FetchItem) (period.Period, error) {
	if len(item.Begin) < 7 {
		return period.Period{}, perr.Validationf("malformed begin date %q", item.Begin)
	}
	return period.Parse(item.Begin[:7])
}

// FetchAndPostReports harvests one provider: endpoint resolution and
// fetch-list reconciliation run concurrently, then the missing items fan
// out over a bounded worker pool. Every item runs to completion; one
// failed item never cancels its siblings
func (h *Harvester) FetchAndPostReports(ctx context.Context, p domain.Provider) domain.ProviderResult {
	return h.fetchAndPost(ctx, p, h.workers)
}

func (h *Harvester) fetchAndPost(ctx context.Context, p domain.Provider, workers int) domain.ProviderResult {
	res := domain.ProviderResult{ProviderID: p.ID, Label: p.Label}

	var (
		ep      domain.Endpoint
		items   []domain.FetchItem
		epErr   error
		listErr error
		prep    sync.WaitGroup
	)
	prep.Add(2)
	go func() {
		defer prep.Done()
		ep, epErr = h.ServiceEndpoint(ctx, p)
	}()
	go func() {
		defer prep.Done()
		items, listErr = h.FetchList(ctx, p)
	}()
	prep.Wait()

	if epErr != nil {
		res.Err = epErr
	} else if listErr != nil {
		res.Err = listErr
	}
	if res.Err != nil {
		logger.C(ctx).Warn().Err(res.Err).
			Str("provider_id", p.ID).
			Str("provider", p.Label).
			Msg("provider run aborted")
		return res
	}
	if len(items) == 0 {
		logger.C(ctx).Info().
			Str("provider_id", p.ID).
			Str("provider", p.Label).
			Msg("nothing to harvest")
		return res
	}

	res.Items = make([]domain.ItemOutcome, len(items))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item domain.FetchItem) {
			defer wg.Done()
			defer func() { <-sem }()
			res.Items[i] = domain.ItemOutcome{Item: item, Err: h.harvestItem(ctx, p, ep, item)}
		}(i, item)
	}
	wg.Wait()

	logger.C(ctx).Info().
		Str("provider_id", p.ID).
		Str("provider", p.Label).
		Int("items", len(res.Items)).
		Str("status", string(res.Status())).
		Msg("provider run finished")
	return res
}

// harvestItem fetches one report unit and stores it
func (h *Harvester) harvestItem(ctx context.Context, p domain.Provider, ep domain.Endpoint, item domain.FetchItem) error {
	payload, err := ep.FetchReport(ctx, item.ReportCode, item.Begin, item.End)
	if err != nil {
		logger.C(ctx).Warn().Err(err).
			Str("provider_id", p.ID).
			Str("report", item.ReportCode).
			Str("begin", item.Begin).
			Msg("fetch failed")
		return err
	}
	month, err := monthOf(item)
	if err != nil {
		return err
	}
	if err := h.PostReport(ctx, h.CreateCounterReport(p, item.ReportCode, month, payload)); err != nil {
		logger.C(ctx).Warn().Err(err).
			Str("provider_id", p.ID).
			Str("report", item.ReportCode).
			Str("begin", item.Begin).
			Msg("store failed")
		return err
	}
	return nil
}

// RunAll harvests every active provider of the scoped tenant. Failures
// are carried inside the report, never returned
func (h *Harvester) RunAll(ctx context.Context) domain.RunReport {
	rep := domain.RunReport{RunID: uuid.NewString(), Tenant: h.tenant}
	ctx = logger.WithRun(ctx, rep.RunID, h.tenant)
	logger.C(ctx).Info().Msg("harvest run started")

	if rep.Err = h.deps.Tenants.HasHarvesterInterface(ctx, h.tenant); rep.Err != nil {
		logger.C(ctx).Warn().Err(rep.Err).Msg("tenant not eligible")
		return rep
	}
	provs, err := h.ActiveProviders(ctx)
	if err != nil {
		rep.Err = err
		logger.C(ctx).Error().Err(err).Msg("loading providers failed")
		return rep
	}

	workers := h.runWorkers(ctx)
	for _, p := range provs {
		rep.Providers = append(rep.Providers, h.fetchAndPost(ctx, p, workers))
	}
	logger.C(ctx).Info().
		Int("providers", len(rep.Providers)).
		Str("status", string(rep.Status())).
		Msg("harvest run finished")
	return rep
}

// RunOne harvests a single provider by id
func (h *Harvester) RunOne(ctx context.Context, providerID string) domain.RunReport {
	rep := domain.RunReport{RunID: uuid.NewString(), Tenant: h.tenant}
	ctx = logger.WithRun(ctx, rep.RunID, h.tenant)
	logger.C(ctx).Info().Str("provider_id", providerID).Msg("single provider run started")

	if rep.Err = h.deps.Tenants.HasHarvesterInterface(ctx, h.tenant); rep.Err != nil {
		logger.C(ctx).Warn().Err(rep.Err).Msg("tenant not eligible")
		return rep
	}
	p, err := h.deps.Providers.ProviderByID(ctx, providerID)
	if err != nil {
		rep.Err = err
		logger.C(ctx).Error().Err(err).Str("provider_id", providerID).Msg("loading provider failed")
		return rep
	}

	rep.Providers = append(rep.Providers, h.fetchAndPost(ctx, p, h.runWorkers(ctx)))
	logger.C(ctx).Info().
		Str("status", string(rep.Status())).
		Msg("single provider run finished")
	return rep
}
