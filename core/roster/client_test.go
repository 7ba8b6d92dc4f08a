package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{
		BaseURL:   srv.URL + "/v1",
		Username:  "ops",
		Password:  "secret",
		Tenant:    "acme",
		PageLimit: 2,
	}, zap.NewNop())
	return client, srv
}

func TestClient_Authenticate(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/Authenticate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "acme", r.Header.Get("X-Tenant-Id"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ops", body["username"])

		_, _ = w.Write([]byte(`{"token":"abc","refreshToken":"r"}`))
	})

	token, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestClient_AuthenticateFailures(t *testing.T) {
	t.Run("Unauthorized", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := client.Authenticate(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("MissingToken", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		_, err := client.Authenticate(context.Background())
		assert.Error(t, err)
	})
}

func TestClient_AuthURLWithoutVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/Authenticate", r.URL.Path)
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, zap.NewNop())
	_, err := client.Authenticate(context.Background())
	require.NoError(t, err)
}

func TestClient_ListFlightsPaginates(t *testing.T) {
	var offsets []int
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/Flights", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2025-01-10T00:00:00Z", r.URL.Query().Get("dateFrom"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)
		switch offset {
		case 0:
			_, _ = w.Write([]byte(`[{"id":1},{"id":"2"}]`))
		case 2:
			_, _ = w.Write([]byte(`[{"id":3,"flightNumberDescription":"3C701"}]`))
		default:
			t.Errorf("unexpected offset %d", offset)
		}
	})

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	flights, err := client.ListFlights(context.Background(), "tok", from, from.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, flights, 3)
	assert.Equal(t, ID("1"), flights[0].ID)
	assert.Equal(t, ID("2"), flights[1].ID)
	assert.Equal(t, "3C701", flights[2].FlightNumber)
	assert.Equal(t, []int{0, 2}, offsets)
}

func TestClient_CrewEmployeePositions(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/Flights/42/Crew":
			_, _ = w.Write([]byte(`[{"crewPositionId":71,"employeeId":7,"isPilotFlying":true,"displayOrder":1}]`))
		case "/v1/Employees/7":
			_, _ = w.Write([]byte(`{"id":7,"firstName":"Ann","surname":"Smith","employeeNo":"as1"}`))
		case "/v1/Crews/Positions":
			_, _ = w.Write([]byte(`[{"id":71,"name":"CPT","isCaptain":true}]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	crew, err := client.FlightCrew(ctx, "tok", "42")
	require.NoError(t, err)
	require.Len(t, crew, 1)
	assert.Equal(t, CrewEntry{PositionID: 71, EmployeeID: 7, IsPilotFlying: true, DisplayOrder: 1}, crew[0])

	emp, err := client.Employee(ctx, "tok", 7)
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith", emp.DisplayName())

	positions, err := client.Positions(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, positions[0].IsCaptain)

	_, err = client.Employee(ctx, "tok", 8)
	assert.Error(t, err)
}

func TestFlight_Departure(t *testing.T) {
	f := Flight{DepartureScheduled: "2025-01-10T05:00:00Z"}
	dep, ok := f.Departure(time.UTC)
	require.True(t, ok)
	assert.Equal(t, 5, dep.Hour())

	f.DepartureEstimate = "2025-01-10T05:30:00Z"
	dep, ok = f.Departure(time.UTC)
	require.True(t, ok)
	assert.Equal(t, 30, dep.Minute())
}

func TestFlight_IsFreight(t *testing.T) {
	for _, desc := range []string{"Freight", "freight charter", " INTL FREIGHT "} {
		assert.True(t, Flight{FlightType: desc}.IsFreight(), desc)
	}
	assert.False(t, Flight{FlightType: "Scheduled"}.IsFreight())
}

func TestFlight_PlannedMinutes(t *testing.T) {
	mins := 65.0
	got, ok := Flight{PlannedFlightTime: &mins}.PlannedMinutes()
	require.True(t, ok)
	assert.Equal(t, 65, got)

	_, ok = Flight{}.PlannedMinutes()
	assert.False(t, ok)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{BaseURL: "https://<roster-host>/v1", Username: "u", Password: "p"}.Validate())
	assert.NoError(t, Config{BaseURL: "https://roster/v1", Username: "u", Password: "p"}.Validate())
}

func TestID_Unmarshal(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[42, "43", null]`), &ids))
	assert.Equal(t, []ID{"42", "43", ""}, ids)
	assert.Equal(t, "42", fmt.Sprint(ids[0]))
}
