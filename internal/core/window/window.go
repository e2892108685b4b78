// Package window provides billing-window arithmetic: resolving a human month
// label into calendar bounds and clipping those bounds to a certification
// episode. Pure compute, no I/O
package window

import (
	"math/rand"
	"time"

	perr "cpoflow/internal/platform/errors"
	str "cpoflow/internal/platform/strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// monthLayout parses labels like "June 2025" after normalization
const monthLayout = "January 2006"

var titleCaser = cases.Title(language.English)

// Window is an inclusive [Start, End] instant pair
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window covers at least one instant.
// A clip of non-overlapping ranges produces an invalid window, not an error
func (w Window) Valid() bool { return !w.Start.After(w.End) }

// Contains reports whether t falls inside the window, inclusive on both ends
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// RandomTime returns a uniformly distributed instant inside the window at
// second granularity. Accepted entries get their audit timestamp from here
func (w Window) RandomTime(rng *rand.Rand) time.Time {
	secs := int64(w.End.Sub(w.Start) / time.Second)
	if secs <= 0 {
		return w.Start
	}
	return w.Start.Add(time.Duration(rng.Int63n(secs+1)) * time.Second)
}

// ResolveMonth parses a "Month Year" label into the first and last calendar
// instants of that month. Case and surrounding/internal whitespace are
// forgiven; anything else is a Parse error
func ResolveMonth(label string) (time.Time, time.Time, error) {
	norm := titleCaser.String(str.CollapseSpaces(label))
	m, err := time.Parse(monthLayout, norm)
	if err != nil {
		return time.Time{}, time.Time{}, perr.Parsef("month label %q is not a full month name and 4-digit year", label)
	}
	start := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second) // last day 23:59:59
	return start, end, nil
}

// Clip intersects a certification episode with month bounds.
// The result may be invalid (Start after End) when the episode does not
// cover the month; callers must check Valid
func Clip(certStart, certEnd, monthStart, monthEnd time.Time) Window {
	w := Window{Start: certStart, End: certEnd}
	if monthStart.After(w.Start) {
		w.Start = monthStart
	}
	if monthEnd.Before(w.End) {
		w.End = monthEnd
	}
	return w
}
