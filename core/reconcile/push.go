package reconcile

import (
	"context"
	"fmt"

	"flightplan-bridge/core/planning"

	"go.uber.org/zap"
)

// Target is the part of a planning session the executor drives.
// *planning.Session implements it.
type Target interface {
	HasRefreshToken() bool
	Refresh(ctx context.Context) error
	EditPlan(ctx context.Context, plan planning.Plan) (planning.EditResult, error)
	DeletePlan(ctx context.Context, id int64) error
}

// PushResult describes an accepted push.
type PushResult struct {
	// Plan is the payload that was finally accepted.
	Plan planning.Plan
	Edit planning.EditResult

	// Recreated is set when an update was refused and the plan was created
	// anew. ReplacedID is the id the update targeted.
	Recreated  bool
	ReplacedID int64

	// CrewStripped is set when the crew block was rejected and dropped.
	CrewStripped bool

	// Notes explain the recoveries taken, for the event reason.
	Notes []string
}

// PlanID returns the id of the accepted plan: the id the planning system
// returned, else the id that was sent.
func (r PushResult) PlanID() (int64, bool) {
	if r.Edit.ID != 0 {
		return r.Edit.ID, true
	}
	if r.Plan.ID != nil {
		return *r.Plan.ID, true
	}
	return 0, false
}

// Executor sends plans and recovers from the rejections that have a known
// remedy:
//
//	unauthorized, refresh token held  -> refresh, retry
//	access denied or forbidden update -> drop id, retry as create
//	invalid crew                      -> drop crew block, retry
//
// Each remedy is applied at most once per call, so a push makes at most four
// requests. Anything else fails the flight.
type Executor struct {
	target Target
	logger *zap.Logger
}

// NewExecutor returns an executor over target.
func NewExecutor(target Target, logger *zap.Logger) *Executor {
	return &Executor{target: target, logger: logger}
}

// Push creates plan, or updates it when plan.ID is set.
func (x *Executor) Push(ctx context.Context, plan planning.Plan) (PushResult, error) {
	var (
		out       PushResult
		refreshed bool
		cur       = plan
	)

	for {
		res, err := x.target.EditPlan(ctx, cur)
		if err == nil {
			out.Plan = cur
			out.Edit = res
			return out, nil
		}

		kind, _ := planning.KindOf(err)
		switch {
		case kind == planning.KindUnauthorized && !refreshed && x.target.HasRefreshToken():
			refreshed = true
			x.logger.Info("Planning token rejected, refreshing and retrying")
			if rerr := x.target.Refresh(ctx); rerr != nil {
				return out, fmt.Errorf("refresh token: %w", rerr)
			}

		case (kind == planning.KindAccessDenied || kind == planning.KindForbidden) && cur.ID != nil && !out.Recreated:
			out.Recreated = true
			out.ReplacedID = *cur.ID
			x.logger.Warn("Update refused, retrying as create",
				zap.Int64("plan_id", *cur.ID), zap.Stringer("kind", kind))
			out.Notes = append(out.Notes, fmt.Sprintf("%s on update, recreated", kind))
			cur = cur.WithID(nil)

		case kind == planning.KindInvalidCrew && cur.Crew != nil && !out.CrewStripped:
			out.CrewStripped = true
			x.logger.Warn("Crew ids rejected, retrying without crew linkage",
				zap.Int64("pic_id", cur.Crew.PICID), zap.Error(err))
			out.Notes = append(out.Notes, "crew ids rejected, sent without crew linkage")
			cur = cur.WithoutCrew()

		default:
			return out, err
		}
	}
}

// Delete removes plan id, refreshing the token once on 401.
func (x *Executor) Delete(ctx context.Context, id int64) error {
	err := x.target.DeletePlan(ctx, id)
	if err == nil || !planning.IsKind(err, planning.KindUnauthorized) || !x.target.HasRefreshToken() {
		return err
	}
	x.logger.Info("Planning token rejected on delete, refreshing and retrying", zap.Int64("plan_id", id))
	if rerr := x.target.Refresh(ctx); rerr != nil {
		return fmt.Errorf("refresh token: %w", rerr)
	}
	return x.target.DeletePlan(ctx, id)
}
