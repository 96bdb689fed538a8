// Package module wires the harvest engine using modkit
package module

import (
	"context"

	modkit "harvester/internal/modkit"
	"harvester/internal/platform/auth"
	perr "harvester/internal/platform/errors"
	"harvester/internal/services/harvest/domain"
	"harvester/internal/services/harvest/endpoints"
	"harvester/internal/services/harvest/service"
)

// Module implements the modkit Module interface for the harvest engine
type Module struct {
	deps modkit.Deps
	name string

	ports any
	svc   *service.Harvester
}

// New constructs a harvest module scoped to the tenant carried by the
// Okapi token. The token must parse and name a tenant
func New(deps modkit.Deps, rawToken string) (*Module, error) {
	tok, err := auth.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	if deps.Folio == nil {
		return nil, perr.Validationf("folio client is required")
	}

	fc := deps.Folio.WithTenant(tok.Tenant, tok.Raw)
	opt := OptionsFromConfig(deps.Cfg)
	svc := service.New(service.Deps{
		Providers:   fc,
		Aggregators: fc,
		Tenants:     fc,
		Configs:     fc,
	}, service.Options{
		Tenant:   tok.Tenant,
		Workers:  opt.Workers,
		Endpoint: endpoints.Options{Timeout: opt.Timeout, UserAgent: opt.UserAgent},
	})

	m := &Module{deps: deps, name: "harvest", svc: svc}
	m.ports = adaptRunnerPort{svc: svc}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module port bundle
func (m *Module) Ports() any { return m.ports }

// Runner returns the run entry points directly, for callers that hold
// the concrete module
func (m *Module) Runner() domain.RunnerPort { return m.ports.(adaptRunnerPort) }

// adaptRunnerPort adapts the harvest service to the domain RunnerPort
type adaptRunnerPort struct{ svc *service.Harvester }

// RunAll implements domain.RunnerPort
func (a adaptRunnerPort) RunAll(ctx context.Context) domain.RunReport {
	return a.svc.RunAll(ctx)
}

// RunOne implements domain.RunnerPort
func (a adaptRunnerPort) RunOne(ctx context.Context, providerID string) domain.RunReport {
	return a.svc.RunOne(ctx, providerID)
}
