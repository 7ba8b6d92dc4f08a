package sync

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"flightplan-bridge/core/metrics"
	"flightplan-bridge/core/reconcile"
	"flightplan-bridge/core/window"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrRunInProgress is returned when a trigger arrives while a pass is running.
var ErrRunInProgress = errors.New("a sync pass is already running")

// Runner executes reconciliation passes.
type Runner interface {
	Run(ctx context.Context, from, to *time.Time) (*reconcile.Result, error)
	Window(from, to *time.Time) window.Window
}

// Trigger describes who asked for a pass and over which range.
type Trigger struct {
	Type        RunType
	InitiatedBy string
	// From and To select an explicit UTC window. Both nil means rolling.
	From *time.Time
	To   *time.Time
}

// Status is the state exposed by GET /sync/status.
type Status struct {
	Running bool     `json:"running"`
	LastRun *SyncRun `json:"last_run,omitempty"`
}

// Service serializes sync passes and records their outcome.
type Service struct {
	runner   Runner
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
	clock    func() time.Time

	lock    *semaphore.Weighted
	running atomic.Bool
	last    atomic.Pointer[SyncRun]
}

// NewService creates a sync service. recorder may be nil.
func NewService(runner Runner, recorder Recorder, m *metrics.Metrics, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{
		runner:   runner,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
		clock:    time.Now,
		lock:     semaphore.NewWeighted(1),
	}
}

// RunOnce runs a single pass unless one is already in flight, in which case it
// returns ErrRunInProgress without waiting.
func (s *Service) RunOnce(ctx context.Context, trig Trigger) (*reconcile.Result, error) {
	if !s.lock.TryAcquire(1) {
		s.metrics.PassesSkipped.Inc()
		s.logger.Info("Sync trigger ignored, pass already running",
			zap.String("run_type", string(trig.Type)), zap.String("initiated_by", trig.InitiatedBy))
		return nil, ErrRunInProgress
	}
	defer s.lock.Release(1)

	s.running.Store(true)
	defer s.running.Store(false)
	done := s.metrics.Running()
	defer done()

	if trig.Type == "" {
		trig.Type = RunManual
	}

	started := s.clock()
	res, err := s.runner.Run(ctx, trig.From, trig.To)
	finished := s.clock()
	s.metrics.ObservePass(res, err)

	run := s.newRun(trig, res, err, started, finished)
	// The history is written even when the caller has gone away.
	if recErr := s.recorder.Record(context.WithoutCancel(ctx), run); recErr != nil {
		s.logger.Warn("Failed to record sync run", zap.Error(recErr))
	}
	s.last.Store(run)

	if err != nil {
		s.logger.Error("Sync pass failed", zap.String("run_type", string(trig.Type)), zap.Error(err))
	}
	return res, err
}

// Status reports whether a pass is running and the last finished pass.
func (s *Service) Status() Status {
	return Status{Running: s.running.Load(), LastRun: s.last.Load()}
}

// Recent returns the latest recorded runs.
func (s *Service) Recent(ctx context.Context, limit int) ([]SyncRun, error) {
	return s.recorder.Recent(ctx, limit)
}

// Flights returns the flight logs of a recorded run.
func (s *Service) Flights(ctx context.Context, runID uint) ([]SyncFlightLog, error) {
	return s.recorder.Flights(ctx, runID)
}

func (s *Service) newRun(trig Trigger, res *reconcile.Result, err error, started, finished time.Time) *SyncRun {
	run := &SyncRun{
		StartedAt:   started.UTC(),
		FinishedAt:  timePtr(finished.UTC()),
		RunType:     trig.Type,
		InitiatedBy: trig.InitiatedBy,
		OK:          err == nil,
	}
	if err != nil {
		run.Error = err.Error()
	}

	w := s.runner.Window(trig.From, trig.To)
	if res != nil {
		w = res.Window
		run.RunID = res.RunID
		run.Fetched = res.Fetched
		run.Created = res.Totals.Created
		run.Updated = res.Totals.Updated
		run.Skipped = res.Totals.Skipped
		run.Deleted = res.Totals.Deleted
		run.Failed = res.Totals.Failed
		run.Warnings = res.Totals.Warnings
		run.Flights = make([]SyncFlightLog, 0, len(res.Events))
		for _, ev := range res.Events {
			run.Flights = append(run.Flights, flightLog(ev))
		}
	}
	run.WindowFromLocal = w.FromLocal.Format(time.RFC3339)
	run.WindowToLocal = w.ToLocal.Format(time.RFC3339)
	run.WindowFromUTC = w.FromUTC
	run.WindowToUTC = w.ToUTC
	return run
}

func flightLog(ev reconcile.Event) SyncFlightLog {
	l := SyncFlightLog{
		SourceFlightID: ev.SourceID,
		FlightNo:       ev.FlightNo,
		Adep:           ev.Adep,
		Ades:           ev.Ades,
		EOBT:           ev.EOBT,
		Registration:   ev.Registration,
		AircraftID:     ev.AircraftID,
		PICName:        ev.PICName,
		PICCode:        ev.PICCode,
		PICID:          ev.PICID,
		FOName:         ev.FOName,
		FOCode:         ev.FOCode,
		FOID:           ev.FOID,
		TICID:          ev.TICID,
		CabinNames:     strings.Join(ev.CabinNames, ", "),
		CabinCodes:     strings.Join(ev.CabinCodes, ", "),
		PlanID:         ev.PlanID,
		Result:         string(ev.Result),
		Reason:         truncate(ev.Reason, 256),
		Warnings:       strings.Join(ev.Warnings, "\n"),
	}
	return l
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func timePtr(t time.Time) *time.Time {
	return &t
}
