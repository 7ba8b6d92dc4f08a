// Package database handles the optional MySQL connection behind the sync run history.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration.
//
// # Connect
//
// Connect establishes the connection, applies pool limits and pings the server within
// the configured timeout. The bridge keeps working without a database; the sync feature
// then falls back to a recorder that keeps nothing.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Run history disabled", zap.Error(err))
//	}
package database
