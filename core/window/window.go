// Package window computes the time range a reconciliation pass covers.
//
// A pass either uses explicit UTC bounds supplied by the caller (manual or
// backfill runs) or a rolling window around "now" expressed in the operator's
// civil time zone. Only rolling windows drop flights that have already
// departed.
package window

import (
	"fmt"
	"time"
)

// Window is the active synchronization range.
type Window struct {
	FromLocal time.Time `json:"from_local"`
	ToLocal   time.Time `json:"to_local"`
	FromUTC   time.Time `json:"from_utc"`
	ToUTC     time.Time `json:"to_utc"`

	// Rolling is true when the window was derived from the clock rather than
	// supplied by the caller.
	Rolling bool `json:"rolling"`
	// Now is the instant the window was computed at.
	Now time.Time `json:"now"`
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(w.FromUTC) && !u.After(w.ToUTC)
}

// Departed reports whether a flight leaving at departure should be dropped
// because it is already gone. Explicit windows never drop flights.
func (w Window) Departed(departure time.Time, leeway time.Duration) bool {
	if !w.Rolling {
		return false
	}
	cutoff := w.Now.UTC().Add(-leeway)
	return departure.UTC().Before(cutoff)
}

func (w Window) String() string {
	return fmt.Sprintf("%s → %s (UTC %s → %s)",
		w.FromLocal.Format(time.RFC3339), w.ToLocal.Format(time.RFC3339),
		w.FromUTC.Format(time.RFC3339), w.ToUTC.Format(time.RFC3339))
}

// Calculator derives windows from configuration.
type Calculator struct {
	PastHours   int
	FutureHours int
	Location    *time.Location
	// Clock returns the current time. time.Now is used when nil.
	Clock func() time.Time
}

// Compute returns the explicit window when both bounds are given, the rolling
// window otherwise. The lower bound is floored to the minute.
func (c Calculator) Compute(from, to *time.Time) Window {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	now := c.now()

	if from != nil && to != nil {
		start := floorMinute(*from)
		return Window{
			FromUTC:   start.UTC(),
			ToUTC:     to.UTC(),
			FromLocal: start.In(loc),
			ToLocal:   to.In(loc),
			Rolling:   false,
			Now:       now,
		}
	}

	nowLocal := now.In(loc)
	fromLocal := floorMinute(nowLocal.Add(-time.Duration(c.PastHours) * time.Hour))
	toLocal := nowLocal.Add(time.Duration(c.FutureHours) * time.Hour)
	return Window{
		FromLocal: fromLocal,
		ToLocal:   toLocal,
		FromUTC:   fromLocal.UTC(),
		ToUTC:     toLocal.UTC(),
		Rolling:   true,
		Now:       now,
	}
}

// floorMinute drops seconds so that plan keys, which carry minutes only, are
// compared against a lower bound of the same precision.
func floorMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

func (c Calculator) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// LoadLocation resolves a zone name. The Windows display name used by some
// roster exports is accepted as an alias for Pacific/Auckland.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "":
		return time.UTC, nil
	case "New Zealand Standard Time":
		name = "Pacific/Auckland"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}
