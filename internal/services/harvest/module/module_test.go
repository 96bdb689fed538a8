package module

import (
	"testing"

	"harvester/internal/adapters/folio"
	modkit "harvester/internal/modkit"
	mod "harvester/internal/modkit/module"
	"harvester/internal/platform/auth"
	"harvester/internal/platform/config"
	perr "harvester/internal/platform/errors"
	"harvester/internal/services/harvest/domain"
)

func testDeps() modkit.Deps {
	return modkit.Deps{
		Cfg:   config.New(),
		Folio: folio.New(folio.Options{BaseURL: "http://okapi.example.org"}),
	}
}

func TestNewRejectsBadToken(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not-a-token"} {
		_, err := New(testDeps(), raw)
		if err == nil {
			t.Fatalf("want error for token %q", raw)
		}
	}
	if _, err := New(testDeps(), ""); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("want unauthorized for empty token, got %v", err)
	}
}

func TestNewRequiresFolioClient(t *testing.T) {
	t.Parallel()

	deps := testDeps()
	deps.Folio = nil
	_, err := New(deps, auth.FakeForTenant("diku"))
	if err == nil || !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestModuleExposesRunnerPort(t *testing.T) {
	t.Parallel()

	m, err := New(testDeps(), auth.FakeForTenant("diku"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Name() != "harvest" {
		t.Fatalf("name = %q", m.Name())
	}
	runner, ok := mod.PortsOf[domain.RunnerPort](m)
	if !ok || runner == nil {
		t.Fatal("module must expose the runner port")
	}
	if m.Runner() == nil {
		t.Fatal("Runner accessor must return the port")
	}
}
