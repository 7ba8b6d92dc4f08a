package roster

import (
	"errors"
	"strconv"
	"strings"
)

// Config holds configuration for the scheduling roster API.
type Config struct {
	// BaseURL is the versioned API root, e.g. https://roster.example.com/v1.
	BaseURL string `mapstructure:"base_url" default:""`
	// Username is the operator account used to authenticate.
	Username string `mapstructure:"username" default:""`
	// Password is the operator password.
	Password string `mapstructure:"password" default:""`
	// Tenant is sent as X-Tenant-Id when set.
	Tenant string `mapstructure:"tenant" default:""`
	// PageLimit is the page size used when listing flights.
	PageLimit int `mapstructure:"page_limit" default:"100"`
	// PICPositionIDs overrides the captain position set (comma separated).
	PICPositionIDs string `mapstructure:"pic_position_ids" default:""`
	// PilotPositionIDs overrides the pilot position set (comma separated).
	PilotPositionIDs string `mapstructure:"pilot_position_ids" default:""`
	// TimeoutSeconds bounds every request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Validate checks that the roster can be reached and authenticated against.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.BaseURL) == "" || strings.Contains(c.BaseURL, "<") {
		missing = append(missing, "source.base_url")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "source.username")
	}
	if strings.TrimSpace(c.Password) == "" {
		missing = append(missing, "source.password")
	}
	if len(missing) > 0 {
		return errors.New("missing roster settings: " + strings.Join(missing, ", "))
	}
	return nil
}

// ParseIDSet parses a comma separated list of numeric ids. Non-numeric tokens
// are ignored.
func ParseIDSet(s string) map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}
