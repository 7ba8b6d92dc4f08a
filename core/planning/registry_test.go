package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"flightplan-bridge/core/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAircraftIndex_Choose(t *testing.T) {
	idx := NewAircraftIndex([]Aircraft{
		{ID: 1, Registration: "ZK-CIZ", Reference: "PAX"},
		{ID: 2, Registration: "zk-ciz", Reference: "FRGHTR"},
		{ID: 3, Registration: "ZKCIA", Reference: "FRGHTR"},
	})

	tests := []struct {
		name    string
		reg     string
		freight bool
		want    int64
		wantOK  bool
	}{
		{"PassengerPrefersNonFreight", "ZK-CIZ", false, 1, true},
		{"FreightPrefersFreighter", "ZK-CIZ", true, 2, true},
		{"NoDashLookup", "ZKCIZ", true, 2, true},
		{"DashedRosterUndashedRegistry", "ZK-CIA", false, 3, true},
		{"FallbackToAny", "ZKCIA", false, 3, true},
		{"Unknown", "ZK-XXX", false, 0, false},
		{"Empty", "", false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Choose(tt.reg, tt.freight)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCrewIndex(t *testing.T) {
	idx := NewCrewIndex([]CrewMember{{ID: 9, Code: "as1"}, {ID: 0, Code: "X"}})
	id, ok := idx.ID(" AS1 ")
	require.True(t, ok)
	assert.Equal(t, int64(9), id)
	_, ok = idx.ID("X")
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Len())

	var nilIdx *CrewIndex
	_, ok = nilIdx.ID("AS1")
	assert.False(t, ok)
}

func TestPlanRow_Key(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want identity.Key
		ok   bool
	}{
		{
			"Canonical",
			`{"id":1,"flight_no":"CVA701","adep":"NZAA","ades":"NZWN","eobt":"2025-01-10T05:00:00+00:00"}`,
			identity.Key{FlightNo: "CVA701", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T05:00Z"},
			true,
		},
		{
			"AlternateFieldsNaiveLocal",
			`{"planId":"2","callsign":"3C 701","dep":"nzaa","destination":"nzwn","off_block_time":"2025-01-10 18:00:30"}`,
			identity.Key{FlightNo: "CVA701", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T05:00Z"},
			true,
		},
		{
			"EpochSeconds",
			`{"flightNo":"CVA701","from":"NZAA","to":"NZWN","etd":1736485200}`,
			identity.Key{FlightNo: "CVA701", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T05:00Z"},
			true,
		},
		{
			"MissingTime",
			`{"flight_no":"CVA701","adep":"NZAA","ades":"NZWN","eobt":null}`,
			identity.Key{FlightNo: "CVA701", Adep: "NZAA", Ades: "NZWN"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePlanRow(tt.raw).Key(auckland)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_KeyAndCopies(t *testing.T) {
	p := Plan{FlightNo: "CVA701", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T05:00:00+00:00", Crew: &Crew{PICID: 1}}
	assert.Equal(t, "2025-01-10T05:00Z", p.Key().EOBT)

	id := int64(5)
	withID := p.WithID(&id)
	id = 6
	require.NotNil(t, withID.ID)
	assert.Equal(t, int64(5), *withID.ID)
	assert.Nil(t, p.ID)

	assert.Nil(t, p.WithoutCrew().Crew)
	assert.NotNil(t, p.Crew)
}

func TestFormatEET(t *testing.T) {
	assert.Equal(t, "0045", FormatEET(45))
	assert.Equal(t, "0130", FormatEET(90))
	assert.Equal(t, "", FormatEET(0))
}

// stubAPI counts registry loads and token refreshes.
type stubAPI struct {
	API
	loginErr      error
	aircraftCalls int
	crewCalls     int
}

func (s *stubAPI) Login(ctx context.Context) (Auth, error) {
	if s.loginErr != nil {
		return Auth{}, s.loginErr
	}
	return Auth{Bearer: "Bearer a", RefreshToken: "r"}, nil
}

func (s *stubAPI) Refresh(ctx context.Context, auth Auth) (Auth, error) {
	auth.Bearer = "Bearer b"
	return auth, nil
}

func (s *stubAPI) ListAircraft(ctx context.Context, auth Auth) ([]Aircraft, error) {
	s.aircraftCalls++
	return []Aircraft{{ID: 1, Registration: "ZK-CIZ"}}, nil
}

func (s *stubAPI) ListCrew(ctx context.Context, auth Auth) ([]CrewMember, error) {
	s.crewCalls++
	return []CrewMember{{ID: 9, Code: "AS1"}}, nil
}

func TestSession_CachesRegistries(t *testing.T) {
	api := &stubAPI{}
	sess, err := NewSession(context.Background(), api, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, sess.HasRefreshToken())

	for i := 0; i < 2; i++ {
		_, err := sess.Aircraft(context.Background())
		require.NoError(t, err)
		_, err = sess.Crew(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, api.aircraftCalls)
	assert.Equal(t, 1, api.crewCalls)

	require.NoError(t, sess.Refresh(context.Background()))
	assert.Equal(t, "Bearer b", sess.auth.Bearer)
}

func TestNewSession_LoginError(t *testing.T) {
	_, err := NewSession(context.Background(), &stubAPI{loginErr: errors.New("nope")}, zap.NewNop())
	assert.Error(t, err)
}
