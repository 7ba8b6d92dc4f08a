package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"flightplan-bridge/core/identity"
)

// Core is the subset of a plan whose change warrants a push. Its fingerprint
// is what the idempotency cache compares between passes.
type Core struct {
	Adep       string `json:"adep"`
	Ades       string `json:"ades"`
	EOBT       string `json:"eobt_key"`
	AircraftID int64  `json:"aircraft_id"`
	FlightNo   string `json:"flight_no"`
	Route      string `json:"route"`
	Level      string `json:"fl"`
	EET        string `json:"eet,omitempty"`
	PICID      int64  `json:"pic_id,omitempty"`
	PICName    string `json:"pic_name,omitempty"`
	FOID       int64  `json:"fo_id,omitempty"`
	FOName     string `json:"fo_name,omitempty"`
	TICID      int64  `json:"tic_id,omitempty"`
	TICName    string `json:"tic_name,omitempty"`
}

// Fingerprint is the hex SHA-256 of the JSON encoding of c. Field order is
// fixed by the struct, so equal cores always hash equal.
func (c Core) Fingerprint() string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Core holds only strings and integers.
		panic(fmt.Sprintf("reconcile: marshal core: %v", err))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Describe lists the fields that differ between old and cur, e.g.
// "EOBT 17:00→18:00; PIC Jane Doe→John Roe". EOBT is shown in loc.
// It returns "" when old is nil or nothing relevant changed.
func Describe(old *Core, cur Core, loc *time.Location) string {
	if old == nil {
		return ""
	}
	var changes []string
	add := func(label string, a, b any) {
		changes = append(changes, fmt.Sprintf("%s %s→%s", label, show(a), show(b)))
	}

	if old.EOBT != cur.EOBT {
		add("EOBT", localClock(old.EOBT, loc), localClock(cur.EOBT, loc))
	}
	if old.PICName != cur.PICName {
		add("PIC", old.PICName, cur.PICName)
	}
	if a, b := nameOrID(old.FOName, old.FOID), nameOrID(cur.FOName, cur.FOID); a != b {
		add("FO", a, b)
	}
	if a, b := nameOrID(old.TICName, old.TICID), nameOrID(cur.TICName, cur.TICID); a != b {
		add("TIC", a, b)
	}
	if old.AircraftID != cur.AircraftID {
		add("AC ID", old.AircraftID, cur.AircraftID)
	}
	if old.Route != cur.Route {
		add("Route", old.Route, cur.Route)
	}
	if old.Level != cur.Level {
		add("FL", old.Level, cur.Level)
	}
	return strings.Join(changes, "; ")
}

func localClock(minuteKey string, loc *time.Location) string {
	t, ok := identity.ParseMinuteKey(minuteKey)
	if !ok {
		return ""
	}
	return t.In(loc).Format("15:04")
}

func nameOrID(name string, id int64) string {
	if name != "" {
		return name
	}
	if id != 0 {
		return fmt.Sprint(id)
	}
	return ""
}

func show(v any) string {
	s := fmt.Sprint(v)
	if s == "" || s == "0" {
		return "-"
	}
	return s
}
