package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"flightplan-bridge/core/identity"
)

// ID is a roster identifier. The API returns numbers, older exports strings;
// both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("roster id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Flight is one scheduled flight from the roster.
type Flight struct {
	ID                 ID       `json:"id"`
	FlightNumber       string   `json:"flightNumberDescription"`
	DeparturePlace     string   `json:"departurePlaceDescription"`
	ArrivalPlace       string   `json:"arrivalPlaceDescription"`
	DepartureScheduled string   `json:"departureScheduled"`
	DepartureEstimate  string   `json:"departureEstimate"`
	ArrivalScheduled   string   `json:"arrivalScheduled"`
	ArrivalEstimate    string   `json:"arrivalEstimate"`
	Registration       string   `json:"flightRegistrationDescription"`
	FlightType         string   `json:"flightTypeDescription"`
	PlannedFlightTime  *float64 `json:"plannedFlightTime"`
}

var freightTypes = map[string]struct{}{
	"freight":         {},
	"freight charter": {},
	"intl freight":    {},
}

// IsFreight reports whether the flight type marks a freight operation.
func (f Flight) IsFreight() bool {
	_, ok := freightTypes[strings.ToLower(strings.TrimSpace(f.FlightType))]
	return ok
}

// ScheduledDeparture parses the scheduled off-block time.
func (f Flight) ScheduledDeparture(naive *time.Location) (time.Time, bool) {
	return identity.ParseTimestamp(f.DepartureScheduled, naive)
}

// EstimatedDeparture parses the latest estimate, when one exists.
func (f Flight) EstimatedDeparture(naive *time.Location) (time.Time, bool) {
	return identity.ParseTimestamp(f.DepartureEstimate, naive)
}

// Departure returns the effective departure: the estimate when present,
// otherwise the scheduled time.
func (f Flight) Departure(naive *time.Location) (time.Time, bool) {
	if t, ok := f.EstimatedDeparture(naive); ok {
		return t, true
	}
	return f.ScheduledDeparture(naive)
}

// PlannedMinutes returns the planned block time in whole minutes.
func (f Flight) PlannedMinutes() (int, bool) {
	if f.PlannedFlightTime == nil || *f.PlannedFlightTime <= 0 {
		return 0, false
	}
	return int(math.Round(*f.PlannedFlightTime)), true
}

// NormalizedRegistration returns the registration uppercased and trimmed.
func (f Flight) NormalizedRegistration() string {
	return strings.ToUpper(strings.TrimSpace(f.Registration))
}

// CrewEntry is one crew assignment on a flight.
type CrewEntry struct {
	PositionID    int64 `json:"crewPositionId"`
	EmployeeID    int64 `json:"employeeId"`
	IsPilotFlying bool  `json:"isPilotFlying"`
	DisplayOrder  int   `json:"displayOrder"`
}

// Position describes a crew position and the roles it carries.
type Position struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	IsCaptain      bool   `json:"isCaptain"`
	IsFirstOfficer bool   `json:"isFirstOfficer"`
}

// Employee is a directory record.
type Employee struct {
	ID               int64  `json:"id"`
	FirstName        string `json:"firstName"`
	Surname          string `json:"surname"`
	ShortDisplayName string `json:"shortDisplayName"`
	Username         string `json:"employeeUsername"`
	EmployeeNo       string `json:"employeeNo"`
}

// DisplayName is "first surname", falling back to the short display name and
// then the username.
func (e Employee) DisplayName() string {
	first := strings.TrimSpace(e.FirstName)
	last := strings.TrimSpace(e.Surname)
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	if s := strings.TrimSpace(e.ShortDisplayName); s != "" {
		return s
	}
	return strings.TrimSpace(e.Username)
}

// Code is the employee number uppercased; the planning system keys crew by it.
func (e Employee) Code() string {
	return strings.ToUpper(strings.TrimSpace(e.EmployeeNo))
}
