package schedule

import (
	"testing"
	"time"

	perr "harvester/internal/platform/errors"
	"harvester/internal/platform/testkit"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextRun(t *testing.T) {
	t.Parallel()

	start := ts("2019-01-01T08:00:00Z")
	tests := []struct {
		name string
		cfg  PeriodicConfig
		want time.Time
	}{
		{
			"never triggered",
			PeriodicConfig{StartAt: start, Interval: IntervalDaily},
			start,
		},
		{
			"daily after one trigger",
			PeriodicConfig{StartAt: start, Interval: IntervalDaily, LastTriggered: start},
			ts("2019-01-02T08:00:00Z"),
		},
		{
			"daily after missed runs",
			PeriodicConfig{StartAt: start, Interval: IntervalDaily, LastTriggered: ts("2019-01-04T09:30:00Z")},
			ts("2019-01-05T08:00:00Z"),
		},
		{
			"weekly",
			PeriodicConfig{StartAt: start, Interval: IntervalWeekly, LastTriggered: start},
			ts("2019-01-08T08:00:00Z"),
		},
		{
			"monthly end of january",
			PeriodicConfig{StartAt: ts("2019-01-31T08:00:00Z"), Interval: IntervalMonthly, LastTriggered: ts("2019-01-31T08:00:00Z")},
			// AddDate normalizes the short month
			ts("2019-03-03T08:00:00Z"),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.NextRun(); !got.Equal(tt.want) {
				t.Fatalf("NextRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDue(t *testing.T) {
	t.Parallel()

	cfg := PeriodicConfig{StartAt: ts("2019-01-01T08:00:00Z"), Interval: IntervalDaily}
	if cfg.Due(ts("2019-01-01T07:59:59Z")) {
		t.Fatal("must not be due before start")
	}
	if !cfg.Due(ts("2019-01-01T08:00:00Z")) {
		t.Fatal("must be due at start")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	cfg := PeriodicConfig{
		Tenant:   "diku",
		StartAt:  ts("2019-01-01T08:00:00Z"),
		Interval: IntervalWeekly,
	}
	if err := r.Upsert(cfg); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := r.Get("diku")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Interval != IntervalWeekly {
		t.Fatalf("interval = %v", got.Interval)
	}

	cfg.Interval = IntervalDaily
	if err := r.Upsert(cfg); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	got, _ = r.Get("diku")
	if got.Interval != IntervalDaily {
		t.Fatal("upsert must replace")
	}

	if err := r.MarkTriggered("diku", ts("2019-01-01T08:00:00Z")); err != nil {
		t.Fatalf("MarkTriggered: %v", err)
	}
	got, _ = r.Get("diku")
	if got.LastTriggered.IsZero() {
		t.Fatal("trigger must be recorded")
	}

	if err := r.Delete("diku"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get("diku"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not-found after delete, got %v", err)
	}
	if err := r.Delete("diku"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("deleting a missing config must fail, got %v", err)
	}
}

func TestRegistryUpsertValidation(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	start := ts("2019-01-01T08:00:00Z")

	tests := []struct {
		name string
		cfg  PeriodicConfig
		want string
	}{
		{"missing tenant", PeriodicConfig{StartAt: start, Interval: IntervalDaily}, "tenant is required"},
		{"missing start", PeriodicConfig{Tenant: "diku", Interval: IntervalDaily}, "start time is required"},
		{"bad interval", PeriodicConfig{Tenant: "diku", StartAt: start, Interval: "hourly"}, "unknown interval"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := r.Upsert(tt.cfg)
			if err == nil {
				t.Fatal("want validation error")
			}
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("want validation code, got %v", perr.CodeOf(err))
			}
			testkit.MustContain(t, err.Error(), tt.want)
		})
	}
}

func TestRegistryDue(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_ = r.Upsert(PeriodicConfig{Tenant: "a", StartAt: ts("2019-01-01T08:00:00Z"), Interval: IntervalDaily})
	_ = r.Upsert(PeriodicConfig{Tenant: "b", StartAt: ts("2019-06-01T08:00:00Z"), Interval: IntervalDaily})

	due := r.Due(ts("2019-03-01T00:00:00Z"))
	if len(due) != 1 || due[0].Tenant != "a" {
		t.Fatalf("due = %v, want only tenant a", due)
	}
}
