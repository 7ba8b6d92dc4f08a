package server

import "time"

// MinInterval is the shortest allowed automatic sync interval.
const MinInterval = 60 * time.Second

// Config holds configuration for the HTTP server and the sync scheduler.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// AutoSync runs a sync pass on a fixed interval while the server is up.
	AutoSync bool `mapstructure:"auto_sync" default:"false"`
	// IntervalSeconds is the automatic sync interval.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"300"`
	// HistoryLimit caps the runs returned by the history endpoint.
	HistoryLimit int `mapstructure:"history_limit" default:"20"`
}

// Interval returns the automatic sync interval, never shorter than MinInterval.
func (c Config) Interval() time.Duration {
	d := time.Duration(c.IntervalSeconds) * time.Second
	if d < MinInterval {
		return MinInterval
	}
	return d
}
