// Package roster is the client for the scheduling roster, the authoritative
// source of flights and crew assignments.
//
// # Client
//
// Client wraps the roster REST API: authentication, paginated flight listing,
// per-flight crew rosters, the employee directory and the crew position
// catalogue. Every request carries the bearer token obtained from
// Authenticate and is bounded by the configured timeout.
//
// # Session
//
// A Session is created once per sync pass. It owns the bearer token, the
// captain/pilot position sets and an employee cache, so nothing leaks from
// one pass into the next.
//
// # Crew resolution
//
// SelectCrew assigns PIC, first officer and cabin crew from a roster using
// the position sets; ResolveCrew then resolves names and employee codes
// through the directory.
//
//	sess, err := roster.NewSession(ctx, client, cfg.Source, log)
//	flights, err := sess.Flights(ctx, from, to)
//	crew, err := sess.ResolveCrew(ctx, flights[0])
package roster
