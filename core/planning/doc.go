// Package planning is the client for the flight planning system that the
// bridge files plans into.
//
// # Authentication
//
// Login presents the application key together with the operator credentials.
// Because deployments are frequently pointed at the wrong environment or API
// version, it walks a small matrix of (host, version) candidates and keeps the
// first that succeeds; every later call of the pass goes to that host with
// that version.
//
// # Rejections
//
// Every failure is returned as *Error carrying a Kind. Classification
// happens once, at the HTTP boundary, so callers switch on kinds instead of
// matching message text:
//
//	var pe *planning.Error
//	if errors.As(err, &pe) && pe.Kind == planning.KindForbidden {
//	    // ...
//	}
//
// IsDeleteRefused folds the 403 and the "forbidden" and "access denied"
// refusals of a delete into one check.
//
// # Registries
//
// The aircraft and crew registries are loaded at most once per Session and
// indexed by registration and crew code respectively.
package planning
