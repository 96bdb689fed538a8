package period

import (
	"testing"
	"time"

	"harvester/internal/platform/testkit"
)

func TestParseAndString(t *testing.T) {
	t.Parallel()

	p, err := Parse("2018-03")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.String() != "2018-03" {
		t.Fatalf("String = %q", p.String())
	}

	for _, bad := range []string{"", "2018", "2018-13", "2018-3", "03-2018"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("Parse(%q) should fail", bad)
		}
	}
}

func TestCalendarBounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in    string
		first string
		last  string
	}{
		{"2018-03", "2018-03-01", "2018-03-31"},
		{"2018-02", "2018-02-01", "2018-02-28"},
		{"2020-02", "2020-02-01", "2020-02-29"}, // leap
		{"2017-12", "2017-12-01", "2017-12-31"},
		{"2018-04", "2018-04-01", "2018-04-30"},
	}
	for _, c := range cases {
		p := MustParse(c.in)
		if p.FirstDay() != c.first {
			t.Fatalf("%s FirstDay = %q, want %q", c.in, p.FirstDay(), c.first)
		}
		if p.LastDay() != c.last {
			t.Fatalf("%s LastDay = %q, want %q", c.in, p.LastDay(), c.last)
		}
	}
}

func TestNextCrossesYear(t *testing.T) {
	t.Parallel()

	if got := MustParse("2017-12").Next(); got.String() != "2018-01" {
		t.Fatalf("Next = %q", got.String())
	}
	if got := MustParse("2018-01").Next(); got.String() != "2018-02" {
		t.Fatalf("Next = %q", got.String())
	}
}

func TestOrdering(t *testing.T) {
	t.Parallel()

	a, b := MustParse("2017-12"), MustParse("2018-01")
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("Before ordering broken")
	}
	if !b.After(a) || a.After(b) {
		t.Fatalf("After ordering broken")
	}
	if a.Before(a) || a.After(a) {
		t.Fatalf("a period should not order against itself")
	}
}

func TestRange(t *testing.T) {
	t.Parallel()

	got := Range(MustParse("2017-12"), MustParse("2018-02"))
	want := []string{"2017-12", "2018-01", "2018-02"}
	if len(got) != len(want) {
		t.Fatalf("Range len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("Range[%d] = %q, want %q", i, got[i].String(), want[i])
		}
	}

	if Range(MustParse("2018-02"), MustParse("2017-12")) != nil {
		t.Fatalf("inverted Range should be nil")
	}
	if got := Range(MustParse("2018-02"), MustParse("2018-02")); len(got) != 1 {
		t.Fatalf("single-month Range len = %d", len(got))
	}
}

func TestCurrentUsesSeam(t *testing.T) {
	testkit.Swap(t, &nowUTC, func() time.Time {
		return time.Date(2018, 4, 15, 12, 0, 0, 0, time.UTC)
	})
	if got := Current(); got.String() != "2018-04" {
		t.Fatalf("Current = %q", got.String())
	}
}

func TestOf(t *testing.T) {
	t.Parallel()

	if got := Of(time.Date(2018, 3, 31, 23, 59, 0, 0, time.UTC)); got.String() != "2018-03" {
		t.Fatalf("Of = %q", got.String())
	}
}
