package planning

import "strings"

// NormalizeRegistration uppercases a registration and strips spaces.
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(reg), " ", ""))
}

// AircraftIndex maps registrations to registry entries. Each entry is
// reachable with and without the nationality dash ("ZK-CIZ" and "ZKCIZ").
// One registration may carry several entries, e.g. a passenger and a freight
// configuration of the same airframe.
type AircraftIndex struct {
	byReg map[string][]Aircraft
}

// NewAircraftIndex indexes the registry.
func NewAircraftIndex(aircraft []Aircraft) *AircraftIndex {
	idx := &AircraftIndex{byReg: make(map[string][]Aircraft)}
	for _, a := range aircraft {
		reg := NormalizeRegistration(a.Registration)
		if reg == "" {
			continue
		}
		idx.byReg[reg] = append(idx.byReg[reg], a)
		if noDash := strings.ReplaceAll(reg, "-", ""); noDash != reg {
			idx.byReg[noDash] = append(idx.byReg[noDash], a)
		}
	}
	return idx
}

// Len returns the number of indexed registration variants.
func (i *AircraftIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byReg)
}

// Lookup returns the entries for a registration.
func (i *AircraftIndex) Lookup(reg string) []Aircraft {
	if i == nil {
		return nil
	}
	r := NormalizeRegistration(reg)
	if r == "" {
		return nil
	}
	if rows, ok := i.byReg[r]; ok {
		return rows
	}
	return i.byReg[strings.ReplaceAll(r, "-", "")]
}

// Choose picks the aircraft id for a flight flown by reg. Freight flights
// prefer the freight configuration, other flights prefer a non-freight one;
// either falls back to the first entry for the registration.
func (i *AircraftIndex) Choose(reg string, freight bool) (int64, bool) {
	rows := i.Lookup(reg)
	if len(rows) == 0 {
		return 0, false
	}
	for _, a := range rows {
		if a.IsFreighter() == freight {
			return a.ID, true
		}
	}
	return rows[0].ID, true
}

// CrewIndex maps uppercased crew codes to planning crew ids.
type CrewIndex struct {
	byCode map[string]int64
}

// NewCrewIndex indexes the crew registry.
func NewCrewIndex(members []CrewMember) *CrewIndex {
	idx := &CrewIndex{byCode: make(map[string]int64, len(members))}
	for _, m := range members {
		code := strings.ToUpper(strings.TrimSpace(m.Code))
		if code == "" || m.ID == 0 {
			continue
		}
		idx.byCode[code] = m.ID
	}
	return idx
}

// Len returns the number of crew codes.
func (i *CrewIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byCode)
}

// ID returns the planning crew id for an employee code.
func (i *CrewIndex) ID(code string) (int64, bool) {
	if i == nil {
		return 0, false
	}
	id, ok := i.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return id, ok
}
