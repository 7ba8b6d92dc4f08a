package reconcile

import (
	"fmt"
	"strings"
	"time"

	"flightplan-bridge/core/window"
)

// Config holds the settings of a sync pass.
type Config struct {
	// PastHours and FutureHours size the rolling window around now.
	PastHours   int `mapstructure:"past_hours" default:"24"`
	FutureHours int `mapstructure:"future_hours" default:"72"`

	// PastLeewayMinutes keeps flights that departed less than this long ago.
	PastLeewayMinutes int `mapstructure:"past_leeway_minutes" default:"0"`

	// LocalTZ is the operator's zone. Windows are computed and diffs are
	// rendered in it.
	LocalTZ string `mapstructure:"local_tz" default:"Pacific/Auckland"`

	// NaiveSourceZone is the zone of roster timestamps carrying no offset.
	NaiveSourceZone string `mapstructure:"naive_source_zone" default:"UTC"`

	// NaiveTargetZone is the zone of planning timestamps carrying no offset.
	// Empty means LocalTZ.
	NaiveTargetZone string `mapstructure:"naive_target_zone"`

	// TestLimit caps the number of flights processed per pass. Zero disables it.
	TestLimit int `mapstructure:"test_limit" default:"0"`

	// ExistStatuses is the comma separated list of plan statuses that count
	// as present.
	ExistStatuses string `mapstructure:"exist_statuses" default:"draft,planned,active,filed"`

	// RequirePIC skips flights whose PIC has no planning crew id.
	RequirePIC bool `mapstructure:"require_pic" default:"false"`

	// WidenPresence runs an extra unfiltered listing to fill presence gaps.
	WidenPresence bool `mapstructure:"widen_presence" default:"true"`

	// CacheBackend selects where the idempotency cache lives: "file" or "object".
	CacheBackend string `mapstructure:"cache_backend" default:"file"`
	CacheFile    string `mapstructure:"cache_file" default:".sync_cache.json"`
	CacheObject  string `mapstructure:"cache_object" default:"sync/cache.json"`

	// Plan defaults.
	DefaultRules      string `mapstructure:"default_rules" default:"I"`
	DefaultFlightType string `mapstructure:"default_flight_type" default:"S"`
	DefaultRoute      string `mapstructure:"default_route" default:"DCT"`
	DefaultLevel      string `mapstructure:"default_level" default:"300"`
}

// Validate checks zones and the cache backend.
func (c Config) Validate() error {
	for _, tz := range []string{c.LocalTZ, c.NaiveSourceZone, c.NaiveTargetZone} {
		if _, err := window.LoadLocation(tz); err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	switch c.CacheBackend {
	case "", "file":
		if c.CacheFile == "" {
			return fmt.Errorf("%w: sync.cache_file is empty", ErrConfiguration)
		}
	case "object":
		if c.CacheObject == "" {
			return fmt.Errorf("%w: sync.cache_object is empty", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown sync.cache_backend %q", ErrConfiguration, c.CacheBackend)
	}
	if c.PastHours < 0 || c.FutureHours < 0 {
		return fmt.Errorf("%w: window hours must not be negative", ErrConfiguration)
	}
	return nil
}

// Statuses splits ExistStatuses.
func (c Config) Statuses() []string {
	var out []string
	for _, s := range strings.Split(c.ExistStatuses, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Outcome is the result of reconciling one flight.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeDeleted Outcome = "deleted"
	OutcomeFailed  Outcome = "failed"
)

// Event reports what a pass did with one flight. Events are the raw material
// of the run history.
type Event struct {
	// SourceID is the roster flight id.
	SourceID string `json:"source_id"`

	FlightNo string `json:"flight_no"`
	Adep     string `json:"adep"`
	Ades     string `json:"ades"`

	// EOBT is the effective off-block time, nil when unknown.
	EOBT *time.Time `json:"eobt,omitempty"`
	// STD and ETD are the scheduled and estimated departures.
	STD *time.Time `json:"std,omitempty"`
	ETD *time.Time `json:"etd,omitempty"`

	Registration string `json:"registration,omitempty"`
	AircraftID   int64  `json:"aircraft_id,omitempty"`

	PICName string `json:"pic_name,omitempty"`
	PICCode string `json:"pic_code,omitempty"`
	PICID   int64  `json:"pic_id,omitempty"`
	FOName  string `json:"fo_name,omitempty"`
	FOCode  string `json:"fo_code,omitempty"`
	FOID    int64  `json:"fo_id,omitempty"`
	TICName string `json:"tic_name,omitempty"`
	TICID   int64  `json:"tic_id,omitempty"`

	// CabinNames and CabinCodes list the whole cabin crew in roster order.
	CabinNames []string `json:"cabin_names,omitempty"`
	CabinCodes []string `json:"cabin_codes,omitempty"`

	// PlanID is the planning id acted upon, zero when none.
	PlanID int64 `json:"plan_id,omitempty"`

	Result Outcome `json:"result"`

	// Reason is a human readable explanation, e.g. the field diff of an update.
	Reason string `json:"reason,omitempty"`

	// Warnings are the messages the planning system attached to an accepted plan.
	Warnings []string `json:"warnings,omitempty"`
}

// Totals counts outcomes of a pass.
type Totals struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

func (t *Totals) count(o Outcome) {
	switch o {
	case OutcomeCreated:
		t.Created++
	case OutcomeUpdated:
		t.Updated++
	case OutcomeSkipped:
		t.Skipped++
	case OutcomeDeleted:
		t.Deleted++
	case OutcomeFailed:
		t.Failed++
	}
}

// Result is the summary of one pass.
type Result struct {
	// RunID identifies the pass in logs and in the run history.
	RunID string `json:"run_id"`

	Window window.Window `json:"window"`

	// Fetched is the number of roster flights returned for the window.
	Fetched int `json:"fetched"`

	Totals Totals  `json:"totals"`
	Events []Event `json:"events"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time of the pass.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
