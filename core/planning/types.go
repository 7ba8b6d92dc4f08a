package planning

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flightplan-bridge/core/identity"

	"github.com/tidwall/gjson"
)

// EOBTLayout is the off-block time format sent in plan payloads.
const EOBTLayout = "2006-01-02T15:04:05-07:00"

// FormatEOBT renders t in UTC using EOBTLayout ("+00:00" offset).
func FormatEOBT(t time.Time) string {
	return t.UTC().Format(EOBTLayout)
}

// Auth is an authenticated context: the host and version that accepted the
// login plus the tokens it issued.
type Auth struct {
	BaseURL      string
	Version      string
	Bearer       string
	RefreshToken string
}

// Crew is the crew linkage block of a plan. Zero ids are "not linked".
type Crew struct {
	PICID int64 `json:"pic_id"`
	FOID  int64 `json:"fo_id"`
	TICID int64 `json:"tic_id"`
}

// IsZero reports whether no crew member is linked.
func (c Crew) IsZero() bool {
	return c.PICID == 0 && c.FOID == 0 && c.TICID == 0
}

// Plan is the payload of /plan/edit. A non-nil ID makes the call an update.
type Plan struct {
	ID         *int64 `json:"id,omitempty"`
	Adep       string `json:"adep"`
	Ades       string `json:"ades"`
	Rules      string `json:"rules"`
	FlightType string `json:"flight_type"`
	FlightNo   string `json:"flight_no"`
	Route      string `json:"route"`
	Level      string `json:"fl"`
	EOBT       string `json:"eobt"`
	AircraftID int64  `json:"aircraft_id"`
	EET        string `json:"eet,omitempty"`
	PIC        string `json:"pic,omitempty"`
	Crew       *Crew  `json:"crew,omitempty"`
}

// WithID returns a copy of the plan targeting id (nil for a create).
func (p Plan) WithID(id *int64) Plan {
	if id != nil {
		v := *id
		id = &v
	}
	p.ID = id
	return p
}

// WithoutCrew returns a copy of the plan with no crew linkage.
func (p Plan) WithoutCrew() Plan {
	p.Crew = nil
	return p
}

// Key returns the identity of the plan.
func (p Plan) Key() identity.Key {
	minute, _ := identity.CanonEOBTMinute(p.EOBT, time.UTC)
	return identity.NewKey(p.FlightNo, p.Adep, p.Ades, minute)
}

// FormatEET renders a duration in minutes as HHMM.
func FormatEET(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%02d%02d", minutes/60, minutes%60)
}

// EditResult is the outcome of a successful /plan/edit call.
type EditResult struct {
	Success  bool
	Warnings []string
	// ID is the plan id returned by the planning system, zero when absent.
	ID int64
}

// PlanRow is one plan as listed by the planning system. Field names vary
// between API versions, so rows are kept as raw JSON and read tolerantly.
type PlanRow struct {
	raw gjson.Result
}

// ParsePlanRow wraps a JSON object.
func ParsePlanRow(raw string) PlanRow {
	return PlanRow{raw: gjson.Parse(raw)}
}

// ID returns the plan id.
func (r PlanRow) ID() (int64, bool) {
	return intField(r.raw, "id", "plan_id", "planId")
}

// Status returns the plan status, empty when absent.
func (r PlanRow) Status() string {
	return stringField(r.raw, "status")
}

// Key computes the plan identity. Offset-less times are read in naive.
func (r PlanRow) Key(naive *time.Location) (identity.Key, bool) {
	flightNo := stringField(r.raw, "flight_no", "flightNo", "callsign")
	adep := stringField(r.raw, "adep", "dep", "from", "origin")
	ades := stringField(r.raw, "ades", "dest", "to", "destination")

	var minute string
	for _, path := range []string{"eobt", "off_block_time", "off_block_time_utc", "etd", "std"} {
		v := r.raw.Get(path)
		if !v.Exists() || v.Type == gjson.Null || v.String() == "" {
			continue
		}
		var ok bool
		if v.Type == gjson.Number {
			minute, ok = identity.CanonEOBTMinute(v.Int(), naive)
		} else {
			minute, ok = identity.CanonEOBTMinute(v.String(), naive)
		}
		if ok {
			break
		}
	}

	k := identity.NewKey(flightNo, adep, ades, minute)
	return k, k.Complete()
}

// Raw returns the row as received.
func (r PlanRow) Raw() string {
	return r.raw.Raw
}

// MarshalJSON emits the row unchanged.
func (r PlanRow) MarshalJSON() ([]byte, error) {
	if r.raw.Raw == "" {
		return []byte("null"), nil
	}
	return []byte(r.raw.Raw), nil
}

// Aircraft is an entry of the planning system's aircraft registry.
type Aircraft struct {
	ID           int64
	Registration string
	Reference    string
}

// IsFreighter reports whether the entry is the freight configuration.
func (a Aircraft) IsFreighter() bool {
	return strings.EqualFold(strings.TrimSpace(a.Reference), "FRGHTR")
}

func parseAircraft(row gjson.Result) (Aircraft, bool) {
	id, ok := intField(row, "id")
	if !ok {
		return Aircraft{}, false
	}
	return Aircraft{
		ID:           id,
		Registration: stringField(row, "registration", "reg", "tail", "callsign"),
		Reference:    stringField(row, "reference"),
	}, true
}

// CrewMember is an entry of the planning system's crew registry.
type CrewMember struct {
	ID   int64
	Code string
}

func parseCrewMember(row gjson.Result) (CrewMember, bool) {
	id, ok := intField(row, "id")
	code := strings.ToUpper(stringField(row, "crew_code"))
	if !ok || id == 0 || code == "" {
		return CrewMember{}, false
	}
	return CrewMember{ID: id, Code: code}, true
}

func stringField(row gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := row.Get(p)
		if v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func intField(row gjson.Result, paths ...string) (int64, bool) {
	for _, p := range paths {
		v := row.Get(p)
		switch v.Type {
		case gjson.Number:
			return v.Int(), true
		case gjson.String:
			if n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
