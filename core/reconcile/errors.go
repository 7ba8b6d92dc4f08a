package reconcile

import "errors"

// Errors that abort a whole pass. Run wraps them with %w so callers can
// match with errors.Is. Every other failure is confined to one flight.
var (
	// ErrConfiguration reports missing or invalid settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuthentication reports that either system refused the credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrSourceUnavailable reports that the roster could not be listed.
	ErrSourceUnavailable = errors.New("source unavailable")
)
