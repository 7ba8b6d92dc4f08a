// Package server holds the HTTP server and scheduler configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure and its derived values.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key, and the automatic sync
// schedule. Interval clamps the schedule to at least one minute.
package server
