// Package ledger sums previously-credited documentation minutes that fall
// inside a billing window. Pure compute, no I/O
package ledger

import (
	"strings"
	"time"

	"cpoflow/internal/core/window"
)

// Record is the minute-bearing slice of a documentation note as the record
// system reports it. Timestamps arrive as ISO-8601 strings of varying
// precision, sometimes with a trailing Z, sometimes absent entirely
type Record struct {
	UpdatedOn string
	CreatedAt string
	Minutes   int
}

// timestampLayouts covers the record system's observed formats, most
// specific first
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// timestamp resolves the record's effective instant, preferring UpdatedOn.
// ok is false when neither field parses; such records are skipped, not errors
func (r Record) timestamp() (time.Time, bool) {
	for _, s := range []string{r.UpdatedOn, r.CreatedAt} {
		if t, ok := parseTimestamp(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	trimmed := strings.TrimSuffix(s, "Z")
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Sum totals Minutes over records whose timestamp lies inside w, inclusive
// on both ends. Zero or missing minute fields contribute nothing
func Sum(records []Record, w window.Window) int {
	total := 0
	for _, r := range records {
		ts, ok := r.timestamp()
		if !ok {
			continue
		}
		if w.Contains(ts) {
			total += r.Minutes
		}
	}
	return total
}
