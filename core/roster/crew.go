package roster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

var (
	defaultCaptainPositions      = []int64{71, 1072, 1074, 1075}
	defaultFirstOfficerPositions = []int64{75, 1073}
)

// PositionSets classifies crew positions into captain and pilot roles.
// Captain positions are always a subset of pilot positions.
type PositionSets struct {
	Captain map[int64]struct{}
	Pilot   map[int64]struct{}
}

// IsCaptain reports whether the position flies as pilot in command.
func (p PositionSets) IsCaptain(id int64) bool {
	_, ok := p.Captain[id]
	return ok
}

// IsPilot reports whether the position is on the flight deck.
func (p PositionSets) IsPilot(id int64) bool {
	_, ok := p.Pilot[id]
	return ok
}

// BuildPositionSets derives the sets from the position lookup, lets the
// configured overrides win and falls back to the built-in ids for any set
// that is still empty.
func BuildPositionSets(positions []Position, captainOverride, pilotOverride map[int64]struct{}) PositionSets {
	sets := PositionSets{
		Captain: make(map[int64]struct{}),
		Pilot:   make(map[int64]struct{}),
	}

	if len(captainOverride) > 0 {
		for id := range captainOverride {
			sets.Captain[id] = struct{}{}
		}
	} else {
		for _, p := range positions {
			if p.IsCaptain {
				sets.Captain[p.ID] = struct{}{}
			}
		}
	}

	if len(pilotOverride) > 0 {
		for id := range pilotOverride {
			sets.Pilot[id] = struct{}{}
		}
	} else {
		for _, p := range positions {
			if p.IsCaptain || p.IsFirstOfficer {
				sets.Pilot[p.ID] = struct{}{}
			}
		}
	}

	if len(sets.Captain) == 0 {
		for _, id := range defaultCaptainPositions {
			sets.Captain[id] = struct{}{}
		}
	}
	if len(sets.Pilot) == 0 {
		for id := range sets.Captain {
			sets.Pilot[id] = struct{}{}
		}
		for _, id := range defaultFirstOfficerPositions {
			sets.Pilot[id] = struct{}{}
		}
	}
	return sets
}

// Selection is the role assignment chosen from a crew roster, before any
// directory lookups.
type Selection struct {
	PIC   *CrewEntry
	FO    *CrewEntry
	Cabin []CrewEntry
}

// SelectCrew applies the role priority rules to a flight's crew roster.
//
// PIC is the first entry in a captain position. FO is the first entry in a
// pilot position that is not a captain position. When either is missing the
// pilot-flying entry among pilot positions is used, else the pilot with the
// lowest display order; the FO fallback never picks the PIC again. Every
// entry outside the pilot positions is cabin crew. Entries without an
// employee are ignored.
func SelectCrew(entries []CrewEntry, sets PositionSets) Selection {
	var sel Selection
	var pilots []CrewEntry
	for _, e := range entries {
		if e.EmployeeID == 0 {
			continue
		}
		if sets.IsPilot(e.PositionID) {
			pilots = append(pilots, e)
		} else {
			sel.Cabin = append(sel.Cabin, e)
		}
	}

	for i := range pilots {
		if sets.IsCaptain(pilots[i].PositionID) {
			sel.PIC = &pilots[i]
			break
		}
	}
	for i := range pilots {
		if !sets.IsCaptain(pilots[i].PositionID) {
			sel.FO = &pilots[i]
			break
		}
	}

	if sel.PIC == nil {
		sel.PIC = fallbackPilot(pilots, 0)
	}
	if sel.FO == nil {
		var exclude int64
		if sel.PIC != nil {
			exclude = sel.PIC.EmployeeID
		}
		sel.FO = fallbackPilot(pilots, exclude)
	}
	return sel
}

func fallbackPilot(pilots []CrewEntry, exclude int64) *CrewEntry {
	for i := range pilots {
		if pilots[i].IsPilotFlying && pilots[i].EmployeeID != exclude {
			return &pilots[i]
		}
	}
	var best *CrewEntry
	for i := range pilots {
		if pilots[i].EmployeeID == exclude {
			continue
		}
		if best == nil || pilots[i].DisplayOrder < best.DisplayOrder {
			best = &pilots[i]
		}
	}
	return best
}

// Person is a crew member resolved through the employee directory.
type Person struct {
	EmployeeID int64
	Name       string
	Code       string
}

// Crew is the resolved crew of a flight.
type Crew struct {
	PIC   *Person
	FO    *Person
	Cabin []Person
}

// Session is the roster context of one sync pass: the bearer token, the
// position sets and an employee cache. It is not safe for concurrent use.
type Session struct {
	api       API
	token     string
	logger    *zap.Logger
	captain   map[int64]struct{}
	pilot     map[int64]struct{}
	sets      *PositionSets
	employees map[int64]Employee
}

// NewSession authenticates against the roster and returns a pass context.
func NewSession(ctx context.Context, api API, cfg Config, logger *zap.Logger) (*Session, error) {
	token, err := api.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{
		api:       api,
		token:     token,
		logger:    logger,
		captain:   ParseIDSet(cfg.PICPositionIDs),
		pilot:     ParseIDSet(cfg.PilotPositionIDs),
		employees: make(map[int64]Employee),
	}, nil
}

// Flights lists every flight in [from, to].
func (s *Session) Flights(ctx context.Context, from, to time.Time) ([]Flight, error) {
	return s.api.ListFlights(ctx, s.token, from, to)
}

// PositionSets resolves the captain and pilot sets once per session. A failed
// lookup falls back to the overrides and built-in ids.
func (s *Session) PositionSets(ctx context.Context) PositionSets {
	if s.sets != nil {
		return *s.sets
	}
	var positions []Position
	if len(s.captain) == 0 || len(s.pilot) == 0 {
		var err error
		positions, err = s.api.Positions(ctx, s.token)
		if err != nil {
			s.logger.Warn("Crew position lookup failed, using built-in position ids", zap.Error(err))
		}
	}
	sets := BuildPositionSets(positions, s.captain, s.pilot)
	s.sets = &sets
	return sets
}

// ResolveCrew fetches a flight's roster and resolves PIC, FO and cabin crew.
// Cabin crew are ordered by name, then employee code.
func (s *Session) ResolveCrew(ctx context.Context, f Flight) (Crew, error) {
	if f.ID == "" {
		return Crew{}, nil
	}
	entries, err := s.api.FlightCrew(ctx, s.token, f.ID)
	if err != nil {
		return Crew{}, err
	}

	sel := SelectCrew(entries, s.PositionSets(ctx))

	var crew Crew
	if sel.PIC != nil {
		p := s.person(ctx, sel.PIC.EmployeeID)
		crew.PIC = &p
	}
	if sel.FO != nil {
		p := s.person(ctx, sel.FO.EmployeeID)
		crew.FO = &p
	}
	for _, e := range sel.Cabin {
		crew.Cabin = append(crew.Cabin, s.person(ctx, e.EmployeeID))
	}
	sort.SliceStable(crew.Cabin, func(i, j int) bool {
		if crew.Cabin[i].Name != crew.Cabin[j].Name {
			return crew.Cabin[i].Name < crew.Cabin[j].Name
		}
		return crew.Cabin[i].Code < crew.Cabin[j].Code
	})
	return crew, nil
}

// person resolves an employee through the per-session cache. Lookup failures
// yield a person without name or code.
func (s *Session) person(ctx context.Context, id int64) Person {
	emp, ok := s.employees[id]
	if !ok {
		var err error
		emp, err = s.api.Employee(ctx, s.token, id)
		if err != nil {
			s.logger.Warn("Employee lookup failed", zap.Int64("employee_id", id), zap.Error(err))
			return Person{EmployeeID: id}
		}
		s.employees[id] = emp
	}
	return Person{EmployeeID: id, Name: emp.DisplayName(), Code: emp.Code()}
}

func (p *Person) String() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprint(p.EmployeeID)
}
