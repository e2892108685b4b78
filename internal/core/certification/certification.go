// Package certification selects the authoritative certification order for a
// patient. A "485" plan of care or a recertification is the only order type
// that authorizes oversight billing
package certification

import (
	"strings"
	"time"

	perr "cpoflow/internal/platform/errors"
)

// certDateLayout is the record system's calendar-date format for episodes
const certDateLayout = "01/02/2006"

// Order is a certification-period document as fetched from the record system
type Order struct {
	DocumentType     string
	DocumentName     string
	StartOfCare      string
	EpisodeStartDate string
	EpisodeEndDate   string
}

// IsCertification reports whether the order is a 485/recert order,
// by case-insensitive substring match on its type or name
func (o Order) IsCertification() bool {
	dt := strings.ToLower(o.DocumentType)
	dn := strings.ToLower(o.DocumentName)
	for _, marker := range []string{"485", "recert"} {
		if strings.Contains(dt, marker) || strings.Contains(dn, marker) {
			return true
		}
	}
	return false
}

// Care returns the order's parsed start-of-care date, the earliest instant
// oversight work can be dated to
func (o Order) Care() (time.Time, error) {
	t, err := parseCertDate(o.StartOfCare)
	if err != nil {
		return time.Time{}, perr.WithField(err, "startOfCare")
	}
	return t, nil
}

// Episode returns the order's parsed episode start and end dates.
// Unparseable dates are Parse errors, fatal for the invocation
func (o Order) Episode() (start, end time.Time, err error) {
	start, err = parseCertDate(o.EpisodeStartDate)
	if err != nil {
		return time.Time{}, time.Time{}, perr.WithField(err, "episodeStartDate")
	}
	end, err = parseCertDate(o.EpisodeEndDate)
	if err != nil {
		return time.Time{}, time.Time{}, perr.WithField(err, "episodeEndDate")
	}
	return start, end, nil
}

func parseCertDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(certDateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, perr.Parsef("certification date %q is not MM/DD/YYYY", s)
	}
	return t, nil
}

// FindOrder returns the first qualifying certification order, preserving the
// input order; earlier-listed wins when several qualify. A false result is a
// normal outcome, it just means no oversight can be billed
func FindOrder(orders []Order) (Order, bool) {
	for _, o := range orders {
		if o.IsCertification() {
			return o, true
		}
	}
	return Order{}, false
}
