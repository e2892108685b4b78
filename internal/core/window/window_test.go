package window

import (
	"math/rand"
	"testing"
	"time"

	perr "cpoflow/internal/platform/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveMonth(t *testing.T) {
	cases := []struct {
		label     string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"June 2025", date(2025, time.June, 1), time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)},
		{"  june   2025 ", date(2025, time.June, 1), time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)},
		{"FEBRUARY 2024", date(2024, time.February, 1), time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC)},
		{"february 2025", date(2025, time.February, 1), time.Date(2025, time.February, 28, 23, 59, 59, 0, time.UTC)},
		{"December 2025", date(2025, time.December, 1), time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC)},
	}
	for _, c := range cases {
		start, end, err := ResolveMonth(c.label)
		if err != nil {
			t.Fatalf("ResolveMonth(%q): %v", c.label, err)
		}
		if !start.Equal(c.wantStart) || !end.Equal(c.wantEnd) {
			t.Fatalf("ResolveMonth(%q) = %v..%v, want %v..%v", c.label, start, end, c.wantStart, c.wantEnd)
		}
	}
}

func TestResolveMonth_Malformed(t *testing.T) {
	for _, label := range []string{"", "June", "Jun 2025", "June 25", "2025 June", "13th 2025"} {
		_, _, err := ResolveMonth(label)
		if err == nil {
			t.Fatalf("ResolveMonth(%q) should fail", label)
		}
		if !perr.IsCode(err, perr.ErrorCodeParse) {
			t.Fatalf("ResolveMonth(%q) code = %v, want Parse", label, perr.CodeOf(err))
		}
	}
}

func TestClip(t *testing.T) {
	monthStart := date(2025, time.June, 1)
	monthEnd := time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)

	cases := []struct {
		name               string
		certStart, certEnd time.Time
		wantStart, wantEnd time.Time
		valid              bool
	}{
		{
			name:      "episode spans month",
			certStart: date(2025, time.May, 10), certEnd: date(2025, time.August, 10),
			wantStart: monthStart, wantEnd: monthEnd, valid: true,
		},
		{
			name:      "episode starts mid-month",
			certStart: date(2025, time.June, 15), certEnd: date(2025, time.August, 10),
			wantStart: date(2025, time.June, 15), wantEnd: monthEnd, valid: true,
		},
		{
			name:      "episode ends mid-month",
			certStart: date(2025, time.April, 1), certEnd: date(2025, time.June, 20),
			wantStart: monthStart, wantEnd: date(2025, time.June, 20), valid: true,
		},
		{
			name:      "episode entirely before month",
			certStart: date(2025, time.January, 1), certEnd: date(2025, time.March, 1),
			valid: false,
		},
		{
			name:      "episode entirely after month",
			certStart: date(2025, time.September, 1), certEnd: date(2025, time.December, 1),
			valid: false,
		},
		{
			name:      "single overlapping day",
			certStart: date(2025, time.June, 30), certEnd: date(2025, time.July, 30),
			wantStart: date(2025, time.June, 30), wantEnd: monthEnd, valid: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := Clip(c.certStart, c.certEnd, monthStart, monthEnd)
			if w.Valid() != c.valid {
				t.Fatalf("Valid() = %v, want %v (window %v..%v)", w.Valid(), c.valid, w.Start, w.End)
			}
			if c.valid && (!w.Start.Equal(c.wantStart) || !w.End.Equal(c.wantEnd)) {
				t.Fatalf("Clip = %v..%v, want %v..%v", w.Start, w.End, c.wantStart, c.wantEnd)
			}
		})
	}
}

func TestContains_BoundaryInclusive(t *testing.T) {
	w := Window{Start: date(2025, time.June, 1), End: time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)}
	if !w.Contains(w.Start) || !w.Contains(w.End) {
		t.Fatalf("window must include both endpoints")
	}
	if w.Contains(w.End.Add(time.Microsecond)) {
		t.Fatalf("an instant after End must be outside")
	}
	if w.Contains(w.Start.Add(-time.Microsecond)) {
		t.Fatalf("an instant before Start must be outside")
	}
}

func TestRandomTime_StaysInside(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w := Window{Start: date(2025, time.June, 10), End: date(2025, time.June, 12)}
	for i := 0; i < 500; i++ {
		ts := w.RandomTime(rng)
		if !w.Contains(ts) {
			t.Fatalf("RandomTime produced %v outside %v..%v", ts, w.Start, w.End)
		}
	}

	// degenerate single-instant window
	point := Window{Start: w.Start, End: w.Start}
	if got := point.RandomTime(rng); !got.Equal(w.Start) {
		t.Fatalf("single-instant window should return Start, got %v", got)
	}
}
