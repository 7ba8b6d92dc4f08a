package planning

import (
	"context"

	"go.uber.org/zap"
)

// Session is the planning context of one sync pass. It holds the current
// tokens and the registries loaded for the pass. It is not safe for
// concurrent use.
type Session struct {
	api    API
	auth   Auth
	logger *zap.Logger

	aircraft *AircraftIndex
	crew     *CrewIndex
}

// NewSession logs in and returns a pass context.
func NewSession(ctx context.Context, api API, logger *zap.Logger) (*Session, error) {
	auth, err := api.Login(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{api: api, auth: auth, logger: logger}, nil
}

// HasRefreshToken reports whether Refresh can be attempted.
func (s *Session) HasRefreshToken() bool {
	return s.auth.RefreshToken != ""
}

// Refresh swaps the bearer using the refresh token.
func (s *Session) Refresh(ctx context.Context) error {
	next, err := s.api.Refresh(ctx, s.auth)
	if err != nil {
		return err
	}
	s.auth = next
	s.logger.Info("Planning token refreshed")
	return nil
}

// ListPlans lists plans in status ("" for every status).
func (s *Session) ListPlans(ctx context.Context, status string) ([]PlanRow, error) {
	return s.api.ListPlans(ctx, s.auth, status)
}

// GetPlan fetches one plan.
func (s *Session) GetPlan(ctx context.Context, id int64) (PlanRow, error) {
	return s.api.GetPlan(ctx, s.auth, id)
}

// EditPlan creates or updates a plan.
func (s *Session) EditPlan(ctx context.Context, plan Plan) (EditResult, error) {
	return s.api.EditPlan(ctx, s.auth, plan)
}

// DeletePlan removes a plan.
func (s *Session) DeletePlan(ctx context.Context, id int64) error {
	return s.api.DeletePlan(ctx, s.auth, id)
}

// Aircraft loads the aircraft registry once per session.
func (s *Session) Aircraft(ctx context.Context) (*AircraftIndex, error) {
	if s.aircraft != nil {
		return s.aircraft, nil
	}
	rows, err := s.api.ListAircraft(ctx, s.auth)
	if err != nil {
		return nil, err
	}
	s.aircraft = NewAircraftIndex(rows)
	s.logger.Info("Loaded aircraft registry", zap.Int("aircraft", len(rows)))
	return s.aircraft, nil
}

// Crew loads the crew registry once per session.
func (s *Session) Crew(ctx context.Context) (*CrewIndex, error) {
	if s.crew != nil {
		return s.crew, nil
	}
	rows, err := s.api.ListCrew(ctx, s.auth)
	if err != nil {
		return nil, err
	}
	s.crew = NewCrewIndex(rows)
	s.logger.Info("Loaded crew registry", zap.Int("crew", s.crew.Len()))
	return s.crew, nil
}
