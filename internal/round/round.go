// Package round models scheduled match rounds (a league's match weeks) and
// decides which round is active relative to a reference date.
//
// A round is active while its last scheduled date has not yet passed. The
// same rule gates pick submission, the no-pick penalty in the survivor
// engine and reminder targeting, so all three always agree on "the current
// round".
package round

import (
	"encoding/json"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Date
// --------------------------------------------------------------------------

const dateLayout = "2006-01-02"

// Date is a calendar date with no time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t, time.UTC), nil
}

// MustParseDate is ParseDate for literals; it panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// --------------------------------------------------------------------------
// Round
// --------------------------------------------------------------------------

// Round is a named scheduling unit. Dates are kept in the order supplied by
// the game configuration; Start and End do not assume they are sorted.
type Round struct {
	Name  string `json:"roundName"`
	Dates []Date `json:"dates"`
}

// Scheduled reports whether the round has at least one date.
func (r Round) Scheduled() bool {
	return len(r.Dates) > 0
}

// Start returns the earliest date of the round.
func (r Round) Start() (Date, bool) {
	if !r.Scheduled() {
		return Date{}, false
	}
	start := r.Dates[0]
	for _, d := range r.Dates[1:] {
		if d.Before(start) {
			start = d
		}
	}
	return start, true
}

// End returns the latest date of the round.
func (r Round) End() (Date, bool) {
	if !r.Scheduled() {
		return Date{}, false
	}
	end := r.Dates[0]
	for _, d := range r.Dates[1:] {
		if d.After(end) {
			end = d
		}
	}
	return end, true
}

// Ended reports whether every date of the round is strictly before asOf.
// Unscheduled rounds never end.
func (r Round) Ended(asOf Date) bool {
	end, ok := r.End()
	return ok && end.Before(asOf)
}

// ActiveIndex returns the schedule position of the active round, or -1 when
// no round is scheduled.
//
// The active round is the first scheduled round whose last date is on or
// after asOf. When every scheduled round has ended the last scheduled round
// stays active, so a finished tournament keeps showing its final round.
func ActiveIndex(rounds []Round, asOf Date) int {
	last := -1
	for i, r := range rounds {
		if !r.Scheduled() {
			continue
		}
		if !r.Ended(asOf) {
			return i
		}
		last = i
	}
	return last
}

// ActiveRound returns the active round relative to asOf. See ActiveIndex.
func ActiveRound(rounds []Round, asOf Date) (Round, bool) {
	i := ActiveIndex(rounds, asOf)
	if i < 0 {
		return Round{}, false
	}
	return rounds[i], true
}

// Concluded reports whether every scheduled round has ended as of asOf.
// An empty schedule is never concluded.
func Concluded(rounds []Round, asOf Date) bool {
	scheduled := 0
	for _, r := range rounds {
		if !r.Scheduled() {
			continue
		}
		scheduled++
		if !r.Ended(asOf) {
			return false
		}
	}
	return scheduled > 0
}

// IndexOf returns the schedule position of the named round, or -1.
func IndexOf(rounds []Round, name string) int {
	for i, r := range rounds {
		if r.Name == name {
			return i
		}
	}
	return -1
}
