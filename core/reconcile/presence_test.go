package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"flightplan-bridge/core/identity"
	"flightplan-bridge/core/planning"
	"flightplan-bridge/core/window"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// listerFunc adapts a function to PlanLister.
type listerFunc func(status string) ([]planning.PlanRow, error)

func (f listerFunc) ListPlans(ctx context.Context, status string) ([]planning.PlanRow, error) {
	return f(status)
}

func rows(raw ...string) []planning.PlanRow {
	out := make([]planning.PlanRow, 0, len(raw))
	for _, r := range raw {
		out = append(out, planning.ParsePlanRow(r))
	}
	return out
}

func TestBuildPresence(t *testing.T) {
	w := window.Window{
		FromUTC: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		ToUTC:   time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
	}
	var calls []string
	lister := listerFunc(func(status string) ([]planning.PlanRow, error) {
		calls = append(calls, status)
		switch status {
		case "draft":
			return nil, errors.New("HTTP 500")
		case "filed":
			return rows(
				`{"id":1,"flight_no":"CVA701","adep":"NZAA","ades":"NZWN","eobt":"2025-01-10T05:00:00+00:00"}`,
				`{"id":2,"flight_no":"CVA900","adep":"NZAA","ades":"NZCH","eobt":"2025-02-01T05:00:00+00:00"}`,
				`{"id":3,"flight_no":"CVA703","adep":"NZAA","ades":"NZWN","eobt":"2025-01-10T07:00:00+00:00"}`,
			), nil
		case "":
			return rows(
				`{"id":9,"flight_no":"CVA701","adep":"NZAA","ades":"NZWN","eobt":"2025-01-10T05:00:00+00:00"}`,
				`{"id":4,"flight_no":"CVA705","adep":"NZAA","ades":"NZWN","eobt":"2025-01-10T09:00:00+00:00"}`,
			), nil
		}
		return nil, nil
	})

	p := BuildPresence(context.Background(), lister, PresenceOptions{
		Window:   w,
		Statuses: []string{"draft", "filed"},
		Widen:    true,
		Ignored:  map[int64]struct{}{3: {}},
		Naive:    time.UTC,
	}, zap.NewNop())

	assert.Equal(t, []string{"draft", "filed", ""}, calls)
	assert.Equal(t, 2, p.Len())

	id, ok := p.Exact(identity.Key{FlightNo: "CVA701", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T05:00Z"})
	assert.True(t, ok)
	assert.Equal(t, int64(1), id, "widen pass does not overwrite status listings")

	_, ok = p.Lookup(identity.Key{FlightNo: "CVA703", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T07:00Z"})
	assert.False(t, ok, "ignored ids are not indexed")

	_, ok = p.Lookup(identity.Key{FlightNo: "CVA900", Adep: "NZAA", Ades: "NZCH", EOBT: "2025-02-01T05:00Z"})
	assert.False(t, ok, "out of window")

	id, ok = p.Lookup(identity.Key{FlightNo: "CVA705", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T10:00Z"})
	assert.True(t, ok, "loose match ignores EOBT")
	assert.Equal(t, int64(4), id)

	p.Remove(identity.Key{FlightNo: "CVA705", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T09:00Z"})
	_, ok = p.Lookup(identity.Key{FlightNo: "CVA705", Adep: "NZAA", Ades: "NZWN", EOBT: "2025-01-10T09:00Z"})
	assert.False(t, ok)
}
