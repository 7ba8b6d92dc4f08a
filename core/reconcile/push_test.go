package reconcile

import (
	"context"
	"errors"
	"testing"

	"flightplan-bridge/core/planning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedTarget answers edits and deletes from a queue of errors.
type scriptedTarget struct {
	editErrs   []error
	deleteErrs []error
	refreshErr error
	noRefresh  bool

	edits     []planning.Plan
	deletes   int
	refreshes int
}

func (s *scriptedTarget) HasRefreshToken() bool { return !s.noRefresh }

func (s *scriptedTarget) Refresh(ctx context.Context) error {
	s.refreshes++
	return s.refreshErr
}

func (s *scriptedTarget) EditPlan(ctx context.Context, plan planning.Plan) (planning.EditResult, error) {
	s.edits = append(s.edits, plan)
	if len(s.editErrs) > 0 {
		err := s.editErrs[0]
		s.editErrs = s.editErrs[1:]
		if err != nil {
			return planning.EditResult{}, err
		}
	}
	return planning.EditResult{Success: true, ID: 77}, nil
}

func (s *scriptedTarget) DeletePlan(ctx context.Context, id int64) error {
	s.deletes++
	if len(s.deleteErrs) > 0 {
		err := s.deleteErrs[0]
		s.deleteErrs = s.deleteErrs[1:]
		return err
	}
	return nil
}

func kindErr(k planning.Kind) error {
	return &planning.Error{Op: "plan/edit", Kind: k, Message: k.String()}
}

func updatePlan() planning.Plan {
	id := int64(5)
	return planning.Plan{ID: &id, FlightNo: "CVA701", Crew: &planning.Crew{PICID: 9}}
}

func TestExecutor_Push(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		target := &scriptedTarget{}
		res, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		require.NoError(t, err)
		assert.Len(t, target.edits, 1)
		id, ok := res.PlanID()
		assert.True(t, ok)
		assert.Equal(t, int64(77), id)
		assert.False(t, res.Recreated)
	})

	t.Run("UnauthorizedRefreshesOnce", func(t *testing.T) {
		target := &scriptedTarget{editErrs: []error{kindErr(planning.KindUnauthorized), kindErr(planning.KindUnauthorized)}}
		_, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		assert.True(t, planning.IsKind(err, planning.KindUnauthorized))
		assert.Equal(t, 1, target.refreshes)
		assert.Len(t, target.edits, 2)
	})

	t.Run("UnauthorizedWithoutRefreshToken", func(t *testing.T) {
		target := &scriptedTarget{noRefresh: true, editErrs: []error{kindErr(planning.KindUnauthorized)}}
		_, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		assert.Error(t, err)
		assert.Equal(t, 0, target.refreshes)
	})

	t.Run("RefreshFailure", func(t *testing.T) {
		target := &scriptedTarget{refreshErr: errors.New("expired"), editErrs: []error{kindErr(planning.KindUnauthorized)}}
		_, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		assert.ErrorContains(t, err, "expired")
		assert.Len(t, target.edits, 1)
	})

	t.Run("AccessDeniedOnUpdateRecreates", func(t *testing.T) {
		target := &scriptedTarget{editErrs: []error{kindErr(planning.KindAccessDenied)}}
		res, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		require.NoError(t, err)
		require.Len(t, target.edits, 2)
		assert.NotNil(t, target.edits[0].ID)
		assert.Nil(t, target.edits[1].ID)
		assert.True(t, res.Recreated)
		assert.Equal(t, int64(5), res.ReplacedID)
		assert.NotEmpty(t, res.Notes)
	})

	t.Run("ForbiddenOnUpdateRecreates", func(t *testing.T) {
		target := &scriptedTarget{editErrs: []error{kindErr(planning.KindForbidden)}}
		res, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		require.NoError(t, err)
		assert.True(t, res.Recreated)
	})

	t.Run("AccessDeniedOnCreateFails", func(t *testing.T) {
		target := &scriptedTarget{editErrs: []error{kindErr(planning.KindAccessDenied)}}
		_, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan().WithID(nil))
		assert.True(t, planning.IsKind(err, planning.KindAccessDenied))
		assert.Len(t, target.edits, 1)
	})

	t.Run("InvalidCrewStripsCrew", func(t *testing.T) {
		target := &scriptedTarget{editErrs: []error{kindErr(planning.KindInvalidCrew)}}
		res, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		require.NoError(t, err)
		require.Len(t, target.edits, 2)
		assert.Nil(t, target.edits[1].Crew)
		assert.NotNil(t, target.edits[1].ID)
		assert.True(t, res.CrewStripped)
	})

	t.Run("RulesFireOnceEach", func(t *testing.T) {
		target := &scriptedTarget{editErrs: []error{
			kindErr(planning.KindUnauthorized),
			kindErr(planning.KindAccessDenied),
			kindErr(planning.KindInvalidCrew),
			kindErr(planning.KindInvalidCrew),
		}}
		_, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		assert.True(t, planning.IsKind(err, planning.KindInvalidCrew))
		assert.Len(t, target.edits, 4)
	})

	t.Run("OtherErrorsFail", func(t *testing.T) {
		target := &scriptedTarget{editErrs: []error{kindErr(planning.KindTransient)}}
		_, err := NewExecutor(target, zap.NewNop()).Push(context.Background(), updatePlan())
		assert.True(t, planning.IsKind(err, planning.KindTransient))
		assert.Len(t, target.edits, 1)
	})
}

func TestExecutor_Delete(t *testing.T) {
	t.Run("RefreshesOn401", func(t *testing.T) {
		target := &scriptedTarget{deleteErrs: []error{kindErr(planning.KindUnauthorized)}}
		err := NewExecutor(target, zap.NewNop()).Delete(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, 2, target.deletes)
		assert.Equal(t, 1, target.refreshes)
	})

	t.Run("ForbiddenIsReturned", func(t *testing.T) {
		target := &scriptedTarget{deleteErrs: []error{kindErr(planning.KindForbidden)}}
		err := NewExecutor(target, zap.NewNop()).Delete(context.Background(), 5)
		assert.True(t, planning.IsKind(err, planning.KindForbidden))
		assert.Equal(t, 1, target.deletes)
	})
}
