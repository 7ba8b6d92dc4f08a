package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func defaultSets() PositionSets {
	return BuildPositionSets(nil, nil, nil)
}

func TestBuildPositionSets(t *testing.T) {
	t.Run("FromLookup", func(t *testing.T) {
		sets := BuildPositionSets([]Position{
			{ID: 1, IsCaptain: true},
			{ID: 2, IsFirstOfficer: true},
			{ID: 3},
		}, nil, nil)
		assert.True(t, sets.IsCaptain(1))
		assert.True(t, sets.IsPilot(1))
		assert.True(t, sets.IsPilot(2))
		assert.False(t, sets.IsCaptain(2))
		assert.False(t, sets.IsPilot(3))
	})

	t.Run("OverrideWins", func(t *testing.T) {
		sets := BuildPositionSets([]Position{{ID: 1, IsCaptain: true}}, ParseIDSet("9"), nil)
		assert.True(t, sets.IsCaptain(9))
		assert.False(t, sets.IsCaptain(1))
		assert.True(t, sets.IsPilot(1))
	})

	t.Run("Fallback", func(t *testing.T) {
		sets := defaultSets()
		for _, id := range []int64{71, 1072, 1074, 1075} {
			assert.True(t, sets.IsCaptain(id))
			assert.True(t, sets.IsPilot(id))
		}
		assert.True(t, sets.IsPilot(75))
		assert.True(t, sets.IsPilot(1073))
		assert.False(t, sets.IsCaptain(75))
	})
}

func TestSelectCrew_ExplicitRoles(t *testing.T) {
	sel := SelectCrew([]CrewEntry{
		{PositionID: 75, EmployeeID: 2, DisplayOrder: 2},
		{PositionID: 71, EmployeeID: 1, DisplayOrder: 1},
		{PositionID: 500, EmployeeID: 3},
		{PositionID: 501, EmployeeID: 0},
	}, defaultSets())

	require.NotNil(t, sel.PIC)
	require.NotNil(t, sel.FO)
	assert.Equal(t, int64(1), sel.PIC.EmployeeID)
	assert.Equal(t, int64(2), sel.FO.EmployeeID)
	require.Len(t, sel.Cabin, 1)
	assert.Equal(t, int64(3), sel.Cabin[0].EmployeeID)
}

func TestSelectCrew_PilotFlyingFallback(t *testing.T) {
	sets := PositionSets{
		Captain: map[int64]struct{}{71: {}},
		Pilot:   map[int64]struct{}{71: {}, 80: {}},
	}
	sel := SelectCrew([]CrewEntry{
		{PositionID: 80, EmployeeID: 5, DisplayOrder: 1},
		{PositionID: 80, EmployeeID: 6, DisplayOrder: 2, IsPilotFlying: true},
	}, sets)

	require.NotNil(t, sel.PIC)
	assert.Equal(t, int64(6), sel.PIC.EmployeeID)
	require.NotNil(t, sel.FO)
	assert.Equal(t, int64(5), sel.FO.EmployeeID)
}

func TestSelectCrew_LowestDisplayOrderFallback(t *testing.T) {
	sets := PositionSets{
		Captain: map[int64]struct{}{71: {}},
		Pilot:   map[int64]struct{}{80: {}, 81: {}},
	}
	sel := SelectCrew([]CrewEntry{
		{PositionID: 80, EmployeeID: 5, DisplayOrder: 3},
		{PositionID: 81, EmployeeID: 6, DisplayOrder: 1},
	}, sets)

	require.NotNil(t, sel.PIC)
	assert.Equal(t, int64(6), sel.PIC.EmployeeID)
}

func TestSelectCrew_FOFallbackSkipsPIC(t *testing.T) {
	sets := defaultSets()
	sel := SelectCrew([]CrewEntry{
		{PositionID: 71, EmployeeID: 1, DisplayOrder: 1, IsPilotFlying: true},
		{PositionID: 1072, EmployeeID: 2, DisplayOrder: 2},
	}, sets)

	require.NotNil(t, sel.PIC)
	assert.Equal(t, int64(1), sel.PIC.EmployeeID)
	require.NotNil(t, sel.FO)
	assert.Equal(t, int64(2), sel.FO.EmployeeID)

	sel = SelectCrew([]CrewEntry{{PositionID: 71, EmployeeID: 1}}, sets)
	assert.NotNil(t, sel.PIC)
	assert.Nil(t, sel.FO)
}

// fakeAPI is an in-memory roster.
type fakeAPI struct {
	authErr      error
	flights      []Flight
	crew         map[ID][]CrewEntry
	employees    map[int64]Employee
	positions    []Position
	positionsErr error

	employeeCalls int
	positionCalls int
}

func (f *fakeAPI) Authenticate(ctx context.Context) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return "tok", nil
}

func (f *fakeAPI) ListFlights(ctx context.Context, token string, from, to time.Time) ([]Flight, error) {
	return f.flights, nil
}

func (f *fakeAPI) FlightCrew(ctx context.Context, token string, id ID) ([]CrewEntry, error) {
	return f.crew[id], nil
}

func (f *fakeAPI) Employee(ctx context.Context, token string, id int64) (Employee, error) {
	f.employeeCalls++
	emp, ok := f.employees[id]
	if !ok {
		return Employee{}, errors.New("not found")
	}
	return emp, nil
}

func (f *fakeAPI) Positions(ctx context.Context, token string) ([]Position, error) {
	f.positionCalls++
	return f.positions, f.positionsErr
}

func TestSession_ResolveCrew(t *testing.T) {
	api := &fakeAPI{
		crew: map[ID][]CrewEntry{
			"42": {
				{PositionID: 71, EmployeeID: 1},
				{PositionID: 75, EmployeeID: 2},
				{PositionID: 300, EmployeeID: 4},
				{PositionID: 300, EmployeeID: 3},
				{PositionID: 300, EmployeeID: 99},
			},
		},
		employees: map[int64]Employee{
			1: {FirstName: "Ann", Surname: "Smith", EmployeeNo: "as1"},
			2: {ShortDisplayName: "B. Jones", EmployeeNo: "bj2"},
			3: {FirstName: "Zoe", Surname: "Adams", EmployeeNo: "za3"},
			4: {Username: "carl", EmployeeNo: "CW4"},
		},
		positionsErr: errors.New("boom"),
	}

	sess, err := NewSession(context.Background(), api, Config{}, zap.NewNop())
	require.NoError(t, err)

	crew, err := sess.ResolveCrew(context.Background(), Flight{ID: "42"})
	require.NoError(t, err)

	require.NotNil(t, crew.PIC)
	assert.Equal(t, "Ann Smith", crew.PIC.Name)
	assert.Equal(t, "AS1", crew.PIC.Code)
	require.NotNil(t, crew.FO)
	assert.Equal(t, "B. Jones", crew.FO.Name)

	require.Len(t, crew.Cabin, 3)
	// Unresolved employee sorts first with an empty name.
	assert.Equal(t, int64(99), crew.Cabin[0].EmployeeID)
	assert.Equal(t, "Zoe Adams", crew.Cabin[1].Name)
	assert.Equal(t, "carl", crew.Cabin[2].Name)

	// Second resolution hits the employee cache and the position sets once.
	calls := api.employeeCalls
	_, err = sess.ResolveCrew(context.Background(), Flight{ID: "42"})
	require.NoError(t, err)
	assert.Equal(t, calls+1, api.employeeCalls) // only the unknown employee is retried
	assert.Equal(t, 1, api.positionCalls)
}

func TestSession_OverridesSkipLookup(t *testing.T) {
	api := &fakeAPI{}
	sess, err := NewSession(context.Background(), api, Config{PICPositionIDs: "1", PilotPositionIDs: "1,2"}, zap.NewNop())
	require.NoError(t, err)

	sets := sess.PositionSets(context.Background())
	assert.True(t, sets.IsCaptain(1))
	assert.True(t, sets.IsPilot(2))
	assert.Equal(t, 0, api.positionCalls)
}

func TestNewSession_AuthFailure(t *testing.T) {
	_, err := NewSession(context.Background(), &fakeAPI{authErr: ErrUnauthorized}, Config{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEmployee_DisplayName(t *testing.T) {
	assert.Equal(t, "Ann Smith", Employee{FirstName: " Ann ", Surname: "Smith"}.DisplayName())
	assert.Equal(t, "Smith", Employee{Surname: "Smith", ShortDisplayName: "AS"}.DisplayName())
	assert.Equal(t, "AS", Employee{ShortDisplayName: "AS", Username: "ann"}.DisplayName())
	assert.Equal(t, "ann", Employee{Username: "ann"}.DisplayName())
	assert.Equal(t, "AS1", Employee{EmployeeNo: " as1 "}.Code())
}
