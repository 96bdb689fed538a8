package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"harvester/internal/core/period"
	perr "harvester/internal/platform/errors"
	"harvester/internal/platform/testkit"
	"harvester/internal/services/harvest/domain"
)

type fakeProviderStore struct {
	mu sync.Mutex

	active      []domain.Provider
	activeErr   error
	byID        map[string]domain.Provider
	stored      map[string][]domain.CounterReport // providerID+"/"+code
	storedErr   error
	storedCalls int

	reportID  string
	reportOK  bool
	reportErr error

	created []domain.CounterReport
	updated map[string]domain.CounterReport
}

func (f *fakeProviderStore) ActiveProviders(context.Context) ([]domain.Provider, error) {
	return f.active, f.activeErr
}

func (f *fakeProviderStore) ProviderByID(_ context.Context, id string) (domain.Provider, error) {
	p, ok := f.byID[id]
	if !ok {
		return domain.Provider{}, perr.NotFoundf("provider %s not found", id)
	}
	return p, nil
}

func (f *fakeProviderStore) StoredReports(_ context.Context, providerID, code string, _, _ period.Period) ([]domain.CounterReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storedCalls++
	if f.storedErr != nil {
		return nil, f.storedErr
	}
	return f.stored[providerID+"/"+code], nil
}

func (f *fakeProviderStore) ReportID(context.Context, string, string, string) (string, bool, error) {
	return f.reportID, f.reportOK, f.reportErr
}

func (f *fakeProviderStore) CreateReport(_ context.Context, rec domain.CounterReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeProviderStore) UpdateReport(_ context.Context, id string, rec domain.CounterReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[string]domain.CounterReport{}
	}
	f.updated[id] = rec
	return nil
}

type fakeAggregatorStore struct {
	setting domain.AggregatorSetting
	err     error
	calls   int
}

func (f *fakeAggregatorStore) AggregatorSetting(context.Context, string) (domain.AggregatorSetting, error) {
	f.calls++
	return f.setting, f.err
}

type fakeTenantDirectory struct {
	tenants []string
	hasErr  error
}

func (f *fakeTenantDirectory) Tenants(context.Context) ([]string, error) { return f.tenants, nil }

func (f *fakeTenantDirectory) HasHarvesterInterface(context.Context, string) error { return f.hasErr }

type fakeConfigStore struct {
	value string
	ok    bool
	err   error
}

func (f *fakeConfigStore) ConfigValue(context.Context, string, string) (string, bool, error) {
	return f.value, f.ok, f.err
}

func testProvider(serviceURL string) domain.Provider {
	return domain.Provider{
		ID:         "prov-1",
		Label:      "Provider One",
		PlatformID: "plat-1",
		SushiCredentials: domain.SushiCredentials{
			CustomerID:  "cust-1",
			RequestorID: "req-1",
		},
		HarvestingConfig: domain.HarvestingConfig{
			Status: domain.HarvestingActive,
			Via:    domain.ViaSushi,
			SushiConfig: &domain.SushiConfig{
				ServiceType: "cs41",
				ServiceURL:  serviceURL,
			},
			ReportRelease:    4,
			Start:            "2018-01",
			End:              "2018-03",
			RequestedReports: []string{"JR1"},
		},
	}
}

func newHarvester(deps Deps) *Harvester {
	h := New(deps, Options{Tenant: "diku", Workers: 2})
	h.nowUTC = func() time.Time { return time.Date(2018, 4, 2, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestFetchListInactiveProvider(t *testing.T) {
	t.Parallel()

	store := &fakeProviderStore{}
	h := newHarvester(Deps{Providers: store})

	p := testProvider("")
	p.HarvestingConfig.Status = domain.HarvestingInactive
	_, err := h.FetchList(context.Background(), p)
	if err == nil {
		t.Fatal("want error for inactive provider")
	}
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation code, got %v", perr.CodeOf(err))
	}
	testkit.MustContain(t, err.Error(), "not active")
	if store.storedCalls != 0 {
		t.Fatalf("inactive provider must not hit storage, got %d calls", store.storedCalls)
	}
}

func TestFetchListMissingMonths(t *testing.T) {
	t.Parallel()

	store := &fakeProviderStore{
		stored: map[string][]domain.CounterReport{
			"prov-1/JR1": {{YearMonth: "2018-02"}},
		},
	}
	h := newHarvester(Deps{Providers: store})

	items, err := h.FetchList(context.Background(), testProvider(""))
	if err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	want := []domain.FetchItem{
		{ReportCode: "JR1", Begin: "2018-01-01", End: "2018-01-31"},
		{ReportCode: "JR1", Begin: "2018-03-01", End: "2018-03-31"},
	}
	if len(items) != len(want) {
		t.Fatalf("items = %v, want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item[%d] = %v, want %v", i, items[i], want[i])
		}
	}
}

func TestFetchListFullyCovered(t *testing.T) {
	t.Parallel()

	store := &fakeProviderStore{
		stored: map[string][]domain.CounterReport{
			"prov-1/JR1": {{YearMonth: "2018-01"}, {YearMonth: "2018-02"}, {YearMonth: "2018-03"}},
		},
	}
	h := newHarvester(Deps{Providers: store})

	items, err := h.FetchList(context.Background(), testProvider(""))
	if err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("want empty list, got %v", items)
	}
}

func TestFetchListMultipleCodes(t *testing.T) {
	t.Parallel()

	store := &fakeProviderStore{}
	h := newHarvester(Deps{Providers: store})

	p := testProvider("")
	p.HarvestingConfig.RequestedReports = []string{"JR1", "DB1"}
	p.HarvestingConfig.End = "2018-01"
	items, err := h.FetchList(context.Background(), p)
	if err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	want := []domain.FetchItem{
		{ReportCode: "JR1", Begin: "2018-01-01", End: "2018-01-31"},
		{ReportCode: "DB1", Begin: "2018-01-01", End: "2018-01-31"},
	}
	if len(items) != len(want) {
		t.Fatalf("items = %v, want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item[%d] = %v, want %v", i, items[i], want[i])
		}
	}
}

func TestFetchListStorageErrorFailsFast(t *testing.T) {
	t.Parallel()

	store := &fakeProviderStore{storedErr: perr.Statusf(500, "received status code 500")}
	h := newHarvester(Deps{Providers: store})

	_, err := h.FetchList(context.Background(), testProvider(""))
	if err == nil {
		t.Fatal("want storage error")
	}
	if !perr.IsCode(err, perr.ErrorCodeStatus) {
		t.Fatalf("want status code, got %v", perr.CodeOf(err))
	}
}

func TestAggregatorSettingMissingRef(t *testing.T) {
	t.Parallel()

	aggs := &fakeAggregatorStore{}
	h := newHarvester(Deps{Aggregators: aggs})

	for _, ref := range []*domain.AggregatorRef{nil, {ID: ""}} {
		p := testProvider("")
		p.HarvestingConfig.Aggregator = ref
		_, err := h.AggregatorSetting(context.Background(), p)
		if err == nil {
			t.Fatal("want error for missing aggregator")
		}
		testkit.MustContain(t, err.Error(), "no aggregator found for provider Provider One")
	}
	if aggs.calls != 0 {
		t.Fatalf("missing ref must not hit storage, got %d calls", aggs.calls)
	}
}

func TestServiceEndpointDirect(t *testing.T) {
	t.Parallel()

	h := newHarvester(Deps{})
	ep, err := h.ServiceEndpoint(context.Background(), testProvider("http://stats.example.org"))
	if err != nil {
		t.Fatalf("ServiceEndpoint: %v", err)
	}
	testkit.MustContain(t, ep.BuildURL("JR1", "2018-01-01", "2018-01-31"), "http://stats.example.org?Report=JR1")
}

func TestServiceEndpointViaAggregator(t *testing.T) {
	t.Parallel()

	aggs := &fakeAggregatorStore{setting: domain.AggregatorSetting{
		ID:          "agg-1",
		ServiceType: "nss",
		ServiceURL:  "http://aggregator.example.org",
		APIKey:      "key",
	}}
	h := newHarvester(Deps{Aggregators: aggs})

	p := testProvider("")
	p.HarvestingConfig.Via = domain.ViaAggregator
	p.HarvestingConfig.Aggregator = &domain.AggregatorRef{ID: "agg-1"}
	ep, err := h.ServiceEndpoint(context.Background(), p)
	if err != nil {
		t.Fatalf("ServiceEndpoint: %v", err)
	}
	testkit.MustContain(t, ep.BuildURL("JR1", "2018-01-01", "2018-01-31"), "APIKey=key")
	if aggs.calls != 1 {
		t.Fatalf("want one aggregator lookup, got %d", aggs.calls)
	}
}

func TestServiceEndpointUnknownType(t *testing.T) {
	t.Parallel()

	h := newHarvester(Deps{})
	p := testProvider("")
	p.HarvestingConfig.SushiConfig.ServiceType = "cs50"
	_, err := h.ServiceEndpoint(context.Background(), p)
	if err == nil {
		t.Fatal("want error for unknown service type")
	}
	testkit.MustContain(t, err.Error(), "No service implementation found for type cs50")
}

func TestServiceEndpointInvalidProvider(t *testing.T) {
	t.Parallel()

	h := newHarvester(Deps{})
	p := testProvider("")
	p.Label = ""
	_, err := h.ServiceEndpoint(context.Background(), p)
	if err == nil {
		t.Fatal("want validation error")
	}
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation code, got %v", perr.CodeOf(err))
	}
}

func TestCreateCounterReport(t *testing.T) {
	t.Parallel()

	h := newHarvester(Deps{})
	rec := h.CreateCounterReport(testProvider(""), "JR1", period.MustParse("2018-02"), json.RawMessage(`{"name":"JR1"}`))

	if rec.ProviderID != "prov-1" || rec.ReportName != "JR1" || rec.YearMonth != "2018-02" {
		t.Fatalf("key fields wrong: %+v", rec)
	}
	if rec.Release != "4" {
		t.Fatalf("release = %q, want 4", rec.Release)
	}
	if rec.CustomerID != "cust-1" || rec.PlatformID != "plat-1" {
		t.Fatalf("identity fields wrong: %+v", rec)
	}
	if rec.DownloadTime != "2018-04-02T12:00:00Z" {
		t.Fatalf("download time = %q", rec.DownloadTime)
	}
}

func TestPostReportCreatesWhenAbsent(t *testing.T) {
	t.Parallel()

	store := &fakeProviderStore{reportOK: false}
	h := newHarvester(Deps{Providers: store})

	rec := domain.CounterReport{ProviderID: "prov-1", ReportName: "JR1", YearMonth: "2018-01"}
	if err := h.PostReport(context.Background(), rec); err != nil {
		t.Fatalf("PostReport: %v", err)
	}
	if len(store.created) != 1 || len(store.updated) != 0 {
		t.Fatalf("want one create, got created=%d updated=%d", len(store.created), len(store.updated))
	}
}

func TestPostReportUpdatesWhenPresent(t *testing.T) {
	t.Parallel()

	store := &fakeProviderStore{reportOK: true, reportID: "rec-9"}
	h := newHarvester(Deps{Providers: store})

	rec := domain.CounterReport{ProviderID: "prov-1", ReportName: "JR1", YearMonth: "2018-01"}
	if err := h.PostReport(context.Background(), rec); err != nil {
		t.Fatalf("PostReport: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("want no creates, got %d", len(store.created))
	}
	if _, ok := store.updated["rec-9"]; !ok {
		t.Fatalf("want update of rec-9, got %v", store.updated)
	}
}

func TestModConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *fakeConfigStore
		want    string
		wantErr bool
	}{
		{"present", &fakeConfigStore{value: "8", ok: true}, "8", false},
		{"absent", &fakeConfigStore{ok: false}, "def", false},
		{"empty value", &fakeConfigStore{value: "", ok: true}, "def", false},
		{"unreachable", &fakeConfigStore{err: perr.Transportf(nil, "failed retrieving config")}, "def", false},
		{"bad status", &fakeConfigStore{err: perr.Statusf(500, "received status code 500")}, "def", false},
		{"undecodable", &fakeConfigStore{err: perr.Decodef("error decoding config entries")}, "", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarvester(Deps{Configs: tt.cfg})
			got, err := h.ModConfigValue(context.Background(), "ERM-USAGE-HARVESTER", "workerCount", "def")
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ModConfigValue: %v", err)
			}
			if got != tt.want {
				t.Fatalf("value = %q, want %q", got, tt.want)
			}
		})
	}
}
