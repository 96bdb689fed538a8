// Command harvester triggers COUNTER report harvesting against a FOLIO
// style backend: either every active provider of a tenant or a single
// provider by id
package main

import (
	"context"
	"flag"
	"os"

	"harvester/internal/adapters/folio"
	modkit "harvester/internal/modkit"
	"harvester/internal/platform/auth"
	"harvester/internal/platform/config"
	"harvester/internal/platform/logger"
	"harvester/internal/services/harvest/domain"
	harvestmod "harvester/internal/services/harvest/module"
)

func main() {
	root := config.New()
	l := logger.Get()

	var (
		fTenant   = flag.String("tenant", "", "tenant id (required when no -token is given)")
		fToken    = flag.String("token", "", "Okapi token; overrides -tenant")
		fProvider = flag.String("provider", "", "harvest a single provider by id instead of all")
	)
	flag.Parse()

	rawToken := *fToken
	if rawToken == "" {
		if *fTenant == "" {
			l.Panic().Msg("must provide -tenant or -token")
		}
		// unsigned dev token; production callers pass the real one
		rawToken = auth.FakeForTenant(*fTenant)
	}

	deps := modkit.Deps{
		Log:   *l,
		Cfg:   root,
		Folio: folio.New(folio.FromConfig(root)),
	}
	m, err := harvestmod.New(deps, rawToken)
	if err != nil {
		l.Panic().Err(err).Msg("building harvest module failed")
	}

	ctx := context.Background()
	var rep domain.RunReport
	if *fProvider != "" {
		rep = m.Runner().RunOne(ctx, *fProvider)
	} else {
		rep = m.Runner().RunAll(ctx)
	}

	for _, p := range rep.Providers {
		ev := l.Info()
		if p.Status() != domain.RunOK {
			ev = l.Warn()
		}
		ev.Str("provider", p.Label).
			Str("provider_id", p.ProviderID).
			Str("status", string(p.Status())).
			Int("items", len(p.Items)).
			Msg("provider result")
		for _, it := range p.Items {
			if it.Failed() {
				l.Warn().
					Str("report", it.Item.ReportCode).
					Str("begin", it.Item.Begin).
					Err(it.Err).
					Msg("item failed")
			}
		}
	}
	if rep.Err != nil {
		l.Error().Err(rep.Err).Str("run_id", rep.RunID).Msg("run aborted")
	}
	if rep.Status() == domain.RunFailed {
		os.Exit(1)
	}
}
