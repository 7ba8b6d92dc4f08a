// Package identity derives the join key shared by roster flights and filed
// plans.
//
// A flight instance is identified by (flight number, ICAO origin, ICAO
// destination, departure minute in UTC). Flight numbers are normalized and
// remapped to the planning system's airline designator, aerodrome codes are
// converted to ICAO locators, and departure times are truncated to the minute
// so second-level jitter between the two systems does not break matching.
//
// # Naive timestamps
//
// Timestamps without an offset are interpreted in a caller-supplied zone. The
// roster and the planning system disagree on this (UTC versus local civil
// time), so callers pass the zone configured for the system the value came
// from.
package identity
