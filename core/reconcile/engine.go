package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flightplan-bridge/core/identity"
	"flightplan-bridge/core/logger"
	"flightplan-bridge/core/planning"
	"flightplan-bridge/core/roster"
	"flightplan-bridge/core/window"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options wires an Engine.
type Options struct {
	Config       Config
	SourceConfig roster.Config
	Source       roster.API
	Target       planning.API
	Store        Store
	Logger       *zap.Logger
	// Clock returns the current time. time.Now is used when nil.
	Clock func() time.Time
}

// Engine runs reconciliation passes. It holds no state between passes other
// than what the Store persists, and it is not safe for concurrent passes;
// callers serialize Run.
type Engine struct {
	cfg       Config
	sourceCfg roster.Config
	source    roster.API
	target    planning.API
	store     Store
	logger    *zap.Logger
	clock     func() time.Time

	local       *time.Location
	naiveSource *time.Location
	naiveTarget *time.Location
}

// NewEngine validates the configuration and returns an engine.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if err := opts.SourceConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if opts.Source == nil || opts.Target == nil || opts.Store == nil {
		return nil, fmt.Errorf("%w: source, target and cache store are required", ErrConfiguration)
	}

	local, _ := window.LoadLocation(opts.Config.LocalTZ)
	naiveSource, _ := window.LoadLocation(opts.Config.NaiveSourceZone)
	naiveTarget := local
	if opts.Config.NaiveTargetZone != "" {
		naiveTarget, _ = window.LoadLocation(opts.Config.NaiveTargetZone)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		cfg:         opts.Config,
		sourceCfg:   opts.SourceConfig,
		source:      opts.Source,
		target:      opts.Target,
		store:       opts.Store,
		logger:      log,
		clock:       clock,
		local:       local,
		naiveSource: naiveSource,
		naiveTarget: naiveTarget,
	}, nil
}

// Store returns the cache store the engine persists to.
func (e *Engine) Store() Store {
	return e.store
}

// Window computes the window a pass with these bounds would cover.
func (e *Engine) Window(from, to *time.Time) window.Window {
	calc := window.Calculator{
		PastHours:   e.cfg.PastHours,
		FutureHours: e.cfg.FutureHours,
		Location:    e.local,
		Clock:       e.clock,
	}
	return calc.Compute(from, to)
}

// Run executes one pass. When both from and to are set the pass covers
// exactly that UTC range; otherwise it covers the rolling window and skips
// departed flights.
//
// Only ErrConfiguration, ErrAuthentication and ErrSourceUnavailable abort a
// pass. Per-flight failures are reported as events.
func (e *Engine) Run(ctx context.Context, from, to *time.Time) (*Result, error) {
	runID := uuid.NewString()
	log := logger.WithRunID(e.logger, runID)

	w := e.Window(from, to)
	res := &Result{RunID: runID, Window: w, StartedAt: e.clock()}
	log.Info("Sync pass started", zap.Stringer("window", w), zap.Bool("rolling", w.Rolling))

	cache, err := e.store.Load(ctx)
	if err != nil {
		log.Warn("Idempotency cache unreadable, starting empty", zap.Error(err))
		cache = Cache{}
	}

	src, err := roster.NewSession(ctx, e.source, e.sourceCfg, log)
	if err != nil {
		return nil, fmt.Errorf("%w: roster: %w", ErrAuthentication, err)
	}
	flights, err := src.Flights(ctx, w.FromUTC, w.ToUTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	res.Fetched = len(flights)

	fetched := make(map[string]struct{}, len(flights))
	for _, f := range flights {
		fetched[f.ID.String()] = struct{}{}
	}
	flights = e.selectFlights(flights, w, log)

	tgt, err := planning.NewSession(ctx, e.target, log)
	if err != nil {
		return nil, fmt.Errorf("%w: planning: %w", ErrAuthentication, err)
	}
	aircraft, err := tgt.Aircraft(ctx)
	if err != nil {
		log.Warn("Aircraft registry unavailable", zap.Error(err))
	}
	crew, err := tgt.Crew(ctx)
	if err != nil {
		log.Warn("Crew registry unavailable", zap.Error(err))
	}

	presence := BuildPresence(ctx, tgt, PresenceOptions{
		Window:   w,
		Statuses: e.cfg.Statuses(),
		Widen:    e.cfg.WidenPresence,
		Ignored:  cache.Ignored(),
		Naive:    e.naiveTarget,
	}, log)

	p := &pass{
		engine:   e,
		log:      log,
		window:   w,
		cache:    cache,
		presence: presence,
		aircraft: aircraft,
		crew:     crew,
		source:   src,
		exec:     NewExecutor(tgt, log),
		result:   res,
		claimed:  make(map[int64]struct{}),
	}

	for _, f := range flights {
		if ctx.Err() != nil {
			log.Warn("Sync pass cancelled", zap.Error(ctx.Err()))
			break
		}
		p.flight(ctx, f)
	}
	if ctx.Err() == nil {
		p.deleteOrphans(ctx, fetched)
	}

	if err := e.store.Save(ctx, cache); err != nil {
		log.Error("Failed to save idempotency cache", zap.Error(err))
	}

	res.FinishedAt = e.clock()
	t := res.Totals
	log.Info("Sync pass finished",
		zap.Int("fetched", res.Fetched),
		zap.Int("created", t.Created),
		zap.Int("updated", t.Updated),
		zap.Int("skipped", t.Skipped),
		zap.Int("deleted", t.Deleted),
		zap.Int("failed", t.Failed),
		zap.Int("warnings", t.Warnings),
		zap.Duration("duration", res.Duration()),
	)
	return res, nil
}

// selectFlights keeps flights whose effective departure lies in the window,
// drops departed ones on rolling windows and applies the test limit.
func (e *Engine) selectFlights(flights []roster.Flight, w window.Window, log *zap.Logger) []roster.Flight {
	leeway := time.Duration(e.cfg.PastLeewayMinutes) * time.Minute
	kept := make([]roster.Flight, 0, len(flights))
	departed := 0
	for _, f := range flights {
		dep, ok := f.Departure(e.naiveSource)
		if !ok || !w.Contains(dep) {
			continue
		}
		if w.Departed(dep, leeway) {
			departed++
			continue
		}
		kept = append(kept, f)
	}
	if e.cfg.TestLimit > 0 && len(kept) > e.cfg.TestLimit {
		kept = kept[:e.cfg.TestLimit]
	}
	log.Info("Roster flights selected",
		zap.Int("fetched", len(flights)),
		zap.Int("departed", departed),
		zap.Int("kept", len(kept)),
	)
	return kept
}

// pass is the state of one Run.
type pass struct {
	engine   *Engine
	log      *zap.Logger
	window   window.Window
	cache    Cache
	presence *Presence
	aircraft *planning.AircraftIndex
	crew     *planning.CrewIndex
	source   *roster.Session
	exec     *Executor
	result   *Result

	// claimed holds plan ids pushed this pass. Orphan deletion never
	// touches them.
	claimed map[int64]struct{}
}

func (p *pass) emit(ev Event) {
	p.result.Events = append(p.result.Events, ev)
	p.result.Totals.count(ev.Result)
}

func (p *pass) flight(ctx context.Context, f roster.Flight) {
	e := p.engine
	fid := f.ID.String()
	log := p.log.With(zap.String("source_id", fid))

	adep, _ := identity.ToICAO(f.DeparturePlace)
	ades, _ := identity.ToICAO(f.ArrivalPlace)
	flightNo := identity.NormalizeFlightNo(f.FlightNumber)
	eobt, hasEOBT := f.Departure(e.naiveSource)

	var minute string
	if hasEOBT {
		minute = identity.MinuteKey(eobt)
	}
	key := identity.NewKey(flightNo, adep, ades, minute)

	ev := Event{
		SourceID:     fid,
		FlightNo:     flightNo,
		Adep:         adep,
		Ades:         ades,
		EOBT:         timePtr(f.Departure(e.naiveSource)),
		STD:          timePtr(f.ScheduledDeparture(e.naiveSource)),
		ETD:          timePtr(f.EstimatedDeparture(e.naiveSource)),
		Registration: f.NormalizedRegistration(),
	}

	crew, err := p.source.ResolveCrew(ctx, f)
	if err != nil {
		log.Warn("Crew roster unavailable, continuing without crew", zap.Error(err))
	}
	if crew.PIC != nil {
		ev.PICName, ev.PICCode = crew.PIC.Name, crew.PIC.Code
	}
	if crew.FO != nil {
		ev.FOName, ev.FOCode = crew.FO.Name, crew.FO.Code
	}
	for _, member := range crew.Cabin {
		ev.CabinNames = append(ev.CabinNames, member.Name)
		ev.CabinCodes = append(ev.CabinCodes, member.Code)
	}

	if p.aircraft == nil {
		ev.Result = OutcomeFailed
		ev.Reason = "aircraft registry unavailable"
		p.emit(ev)
		return
	}
	aircraftID, ok := p.aircraft.Choose(f.Registration, f.IsFreight())
	if !ok {
		log.Warn("No planning aircraft for registration", zap.String("registration", f.Registration))
		p.lostRegistration(ctx, fid, key, ev, log)
		return
	}
	ev.AircraftID = aircraftID

	var missing []string
	if adep == "" {
		missing = append(missing, "ADEP")
	}
	if ades == "" {
		missing = append(missing, "ADES")
	}
	if !hasEOBT {
		missing = append(missing, "EOBT")
	}
	if len(missing) > 0 {
		log.Warn("Skipping flight with incomplete data", zap.Strings("missing", missing))
		ev.Result = OutcomeSkipped
		ev.Reason = "missing " + strings.Join(missing, ", ")
		p.emit(ev)
		return
	}

	plan := planning.Plan{
		Adep:       adep,
		Ades:       ades,
		Rules:      e.cfg.DefaultRules,
		FlightType: e.cfg.DefaultFlightType,
		FlightNo:   flightNo,
		Route:      e.cfg.DefaultRoute,
		Level:      e.cfg.DefaultLevel,
		EOBT:       planning.FormatEOBT(eobt),
		AircraftID: aircraftID,
	}
	if mins, ok := f.PlannedMinutes(); ok {
		plan.EET = planning.FormatEET(mins)
	}
	if crew.PIC != nil {
		plan.PIC = crew.PIC.Name
	}

	block, ticName, ok := p.crewBlock(crew, log)
	if !ok {
		ev.Result = OutcomeSkipped
		ev.Reason = fmt.Sprintf("PIC %s has no planning crew record", crew.PIC.Code)
		p.emit(ev)
		return
	}
	plan.Crew = &block
	ev.PICID, ev.FOID, ev.TICID, ev.TICName = block.PICID, block.FOID, block.TICID, ticName

	core := Core{
		Adep:       adep,
		Ades:       ades,
		EOBT:       minute,
		AircraftID: aircraftID,
		FlightNo:   flightNo,
		Route:      plan.Route,
		Level:      plan.Level,
		EET:        plan.EET,
		PICID:      block.PICID,
		PICName:    ev.PICName,
		FOID:       block.FOID,
		FOName:     ev.FOName,
		TICID:      block.TICID,
		TICName:    ticName,
	}
	fp := core.Fingerprint()

	prev := p.cache[fid]
	presentID, visible := p.presence.Lookup(key)

	if visible && prev != nil && prev.Fingerprint == fp {
		log.Debug("Plan visible and unchanged")
		p.claimed[presentID] = struct{}{}
		ev.PlanID = presentID
		ev.Result = OutcomeSkipped
		ev.Reason = "no changes since last sync"
		p.emit(ev)
		return
	}

	var updateID *int64
	switch {
	case prev != nil && prev.PlanID != nil && !prev.Undeletable:
		updateID = prev.PlanID
	case visible:
		updateID = &presentID
	}

	var prevCore *Core
	if prev != nil {
		prevCore = prev.Core
	}
	diff := Describe(prevCore, core, e.local)

	pr, err := p.exec.Push(ctx, plan.WithID(updateID))
	if err != nil {
		log.Error("Plan push failed", zap.Error(err))
		ev.Result = OutcomeFailed
		ev.Reason = err.Error()
		if updateID != nil {
			ev.PlanID = *updateID
		}
		p.emit(ev)
		return
	}

	if n := len(pr.Edit.Warnings); n > 0 {
		p.result.Totals.Warnings += n
		log.Warn("Plan accepted with warnings", zap.Strings("warnings", pr.Edit.Warnings))
	}

	entry := &Entry{Fingerprint: fp, Core: &core, Key: &key}
	if prev != nil {
		entry.IgnoredIDs = append(entry.IgnoredIDs, prev.IgnoredIDs...)
		if prev.Undeletable && prev.PlanID != nil {
			entry.IgnoredIDs = appendID(entry.IgnoredIDs, *prev.PlanID)
		}
	}
	if pr.Recreated {
		entry.IgnoredIDs = appendID(entry.IgnoredIDs, pr.ReplacedID)
	}
	if id, ok := pr.PlanID(); ok {
		entry.PlanID = &id
		ev.PlanID = id
		p.claimed[id] = struct{}{}
		p.presence.Put(key, id)
	}
	p.cache[fid] = entry

	ev.Result = OutcomeCreated
	var reasons []string
	if pr.Plan.ID != nil {
		ev.Result = OutcomeUpdated
		if diff == "" {
			diff = "changed"
		}
	}
	if diff != "" {
		reasons = append(reasons, diff)
	}
	ev.Reason = strings.Join(append(reasons, pr.Notes...), "; ")
	ev.Warnings = pr.Edit.Warnings
	p.emit(ev)

	log.Info("Plan pushed",
		zap.String("result", string(ev.Result)),
		zap.Int64("plan_id", ev.PlanID),
		zap.String("flight_no", flightNo),
		zap.String("changes", ev.Reason),
	)
}

// crewBlock maps the resolved crew onto planning crew ids. The TIC is the
// first cabin member with a planning id; its display name falls back to the
// first cabin member. ok is false when a PIC is required but unmapped.
func (p *pass) crewBlock(crew roster.Crew, log *zap.Logger) (block planning.Crew, ticName string, ok bool) {
	if crew.PIC != nil && crew.PIC.Code != "" {
		if id, found := p.crew.ID(crew.PIC.Code); found {
			block.PICID = id
		} else if p.engine.cfg.RequirePIC {
			log.Warn("PIC not in planning crew registry", zap.String("code", crew.PIC.Code))
			return block, "", false
		} else {
			log.Warn("PIC not in planning crew registry, continuing without linkage", zap.String("code", crew.PIC.Code))
		}
	}
	if crew.FO != nil && crew.FO.Code != "" {
		if id, found := p.crew.ID(crew.FO.Code); found {
			block.FOID = id
		} else {
			log.Warn("FO not in planning crew registry", zap.String("code", crew.FO.Code))
		}
	}
	for _, member := range crew.Cabin {
		if id, found := p.crew.ID(member.Code); found && member.Code != "" {
			block.TICID = id
			ticName = member.Name
			break
		}
	}
	if ticName == "" && len(crew.Cabin) > 0 {
		ticName = crew.Cabin[0].Name
	}
	return block, ticName, true
}

// lostRegistration handles a flight whose aircraft is unknown to the planning
// system: any plan previously filed for it is removed.
func (p *pass) lostRegistration(ctx context.Context, fid string, key identity.Key, ev Event, log *zap.Logger) {
	prev := p.cache[fid]

	id, found := p.presence.Exact(key)
	if !found {
		id, found = p.presence.Lookup(key)
	}
	if !found && prev != nil && prev.PlanID != nil && !prev.Undeletable {
		id, found = *prev.PlanID, true
	}
	if !found {
		ev.Result = OutcomeSkipped
		ev.Reason = fmt.Sprintf("no planning aircraft for registration %q", ev.Registration)
		p.emit(ev)
		return
	}

	ev.PlanID = id
	err := p.exec.Delete(ctx, id)
	switch {
	case err == nil:
		log.Info("Removed plan for flight without registration", zap.Int64("plan_id", id))
		p.presence.Remove(key)
		if prev != nil {
			prev.PlanID = nil
		}
		ev.Result = OutcomeDeleted
		ev.Reason = "no registration on roster, removed from planning"
	case planning.IsDeleteRefused(err):
		log.Warn("Planning refused delete, marking undeletable", zap.Int64("plan_id", id))
		p.presence.Remove(key)
		if prev != nil {
			prev.Undeletable = true
			prev.PlanID = &id
		} else {
			p.cache[fid] = &Entry{Key: &key, PlanID: &id, Undeletable: true}
		}
		ev.Result = OutcomeSkipped
		ev.Reason = "planning refused delete; plan will be ignored"
	default:
		log.Error("Failed to remove plan for flight without registration", zap.Int64("plan_id", id), zap.Error(err))
		ev.Result = OutcomeFailed
		ev.Reason = "tried to delete plan but failed: " + err.Error()
	}
	p.emit(ev)
}

// deleteOrphans removes plans whose roster flight disappeared. Only entries
// whose EOBT lies in the window are considered, and plans pushed this pass
// are never removed.
func (p *pass) deleteOrphans(ctx context.Context, fetched map[string]struct{}) {
	scanned, candidates, deleted := 0, 0, 0
	for _, fid := range p.cache.IDs() {
		scanned++
		if _, ok := fetched[fid]; ok {
			continue
		}
		entry := p.cache[fid]
		if entry.Undeletable || entry.Key == nil {
			continue
		}
		key := *entry.Key
		t, ok := key.Time()
		if !ok || !p.window.Contains(t) {
			continue
		}
		candidates++

		id, found := p.presence.Exact(key)
		if !found {
			id, found = p.presence.Lookup(key)
		}
		if !found && entry.PlanID != nil {
			id, found = *entry.PlanID, true
		}
		if !found {
			p.log.Debug("Orphan has no visible plan", zap.String("source_id", fid))
			continue
		}
		if _, mine := p.claimed[id]; mine {
			p.log.Info("Orphan plan now belongs to another flight, dropping entry",
				zap.String("source_id", fid), zap.Int64("plan_id", id))
			delete(p.cache, fid)
			continue
		}

		ev := Event{
			SourceID: fid,
			FlightNo: key.FlightNo,
			Adep:     key.Adep,
			Ades:     key.Ades,
			EOBT:     &t,
			PlanID:   id,
		}
		log := p.log.With(zap.String("source_id", fid), zap.Int64("plan_id", id))

		err := p.exec.Delete(ctx, id)
		switch {
		case err == nil:
			log.Info("Removed plan for flight missing from roster")
			deleted++
			p.presence.Remove(key)
			delete(p.cache, fid)
			ev.Result = OutcomeDeleted
			ev.Reason = "missing from roster, removed from planning"
		case planning.IsDeleteRefused(err):
			log.Warn("Planning refused delete, marking undeletable")
			entry.Undeletable = true
			entry.PlanID = &id
			p.presence.Remove(key)
			ev.Result = OutcomeSkipped
			ev.Reason = "planning refused delete; plan will be ignored and may be recreated"
		default:
			log.Error("Failed to remove orphaned plan", zap.Error(err))
			ev.Result = OutcomeFailed
			ev.Reason = "tried to delete orphaned plan but failed: " + err.Error()
		}
		p.emit(ev)
	}
	p.log.Info("Orphan reconcile finished",
		zap.Int("scanned", scanned),
		zap.Int("candidates", candidates),
		zap.Int("deleted", deleted),
	)
}

func timePtr(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	u := t.UTC()
	return &u
}

func appendID(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
