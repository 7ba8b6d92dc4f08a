package planning

import (
	"errors"
	"strings"
)

// Config holds configuration for the flight planning API.
type Config struct {
	// BaseURL is the API root, e.g. https://fly.example.com/api.
	BaseURL string `mapstructure:"base_url" default:""`
	// AlternateBaseURL is tried when login on BaseURL fails (e.g. the
	// development environment of the same vendor).
	AlternateBaseURL string `mapstructure:"alternate_base_url" default:""`
	// AppKey is the application key issued by the vendor.
	AppKey string `mapstructure:"app_key" default:""`
	// APIVersion is sent as X-API-Version.
	APIVersion string `mapstructure:"api_version" default:"1.18"`
	// FallbackAPIVersion is tried when login with APIVersion fails.
	FallbackAPIVersion string `mapstructure:"fallback_api_version" default:"1.14"`
	// Email is the operator login.
	Email string `mapstructure:"email" default:""`
	// Password is the operator password.
	Password string `mapstructure:"password" default:""`
	// PageSize is the plan listing page size.
	PageSize int `mapstructure:"page_size" default:"200"`
	// TimeoutSeconds bounds every request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// UserAgent identifies the bridge to the vendor.
	UserAgent string `mapstructure:"user_agent" default:"flightplan-bridge/1.0"`
	// DebugPayload logs every plan edit payload.
	DebugPayload bool `mapstructure:"debug_payload" default:"false"`
}

// Validate checks that a login can be attempted.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, "target.base_url")
	}
	if strings.TrimSpace(c.AppKey) == "" {
		missing = append(missing, "target.app_key")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "target.email")
	}
	if strings.TrimSpace(c.Password) == "" {
		missing = append(missing, "target.password")
	}
	if len(missing) > 0 {
		return errors.New("missing planning settings: " + strings.Join(missing, ", "))
	}
	return nil
}
