package identity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Key identifies one logical flight instance across both systems.
// Two records sharing a Key are the same flight.
type Key struct {
	FlightNo string
	Adep     string
	Ades     string
	EOBT     string // canonical minute key
}

// LooseKey is Key without the time component. It is used as a fallback match
// when the departure time drifted between systems.
type LooseKey struct {
	FlightNo string
	Adep     string
	Ades     string
}

// NewKey builds a Key from raw parts, normalizing flight number and locators.
func NewKey(flightNo, adep, ades, eobtKey string) Key {
	return Key{
		FlightNo: NormalizeFlightNo(flightNo),
		Adep:     strings.ToUpper(strings.TrimSpace(adep)),
		Ades:     strings.ToUpper(strings.TrimSpace(ades)),
		EOBT:     eobtKey,
	}
}

// Complete reports whether every component is populated.
func (k Key) Complete() bool {
	return k.FlightNo != "" && k.Adep != "" && k.Ades != "" && k.EOBT != ""
}

// Loose drops the time component.
func (k Key) Loose() LooseKey {
	return LooseKey{FlightNo: k.FlightNo, Adep: k.Adep, Ades: k.Ades}
}

// Time decodes the EOBT component.
func (k Key) Time() (time.Time, bool) {
	return ParseMinuteKey(k.EOBT)
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s-%s %s", k.FlightNo, k.Adep, k.Ades, k.EOBT)
}

// MarshalJSON encodes the key as a 4-element array, the shape stored in the
// idempotency cache file.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{k.FlightNo, k.Adep, k.Ades, k.EOBT})
}

// UnmarshalJSON accepts the array form. null decodes to the zero key.
func (k *Key) UnmarshalJSON(data []byte) error {
	var parts []*string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("identity key: %w", err)
	}
	if parts == nil {
		*k = Key{}
		return nil
	}
	if len(parts) != 4 {
		return fmt.Errorf("identity key: expected 4 parts, got %d", len(parts))
	}
	val := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	*k = Key{FlightNo: val(parts[0]), Adep: val(parts[1]), Ades: val(parts[2]), EOBT: val(parts[3])}
	return nil
}
