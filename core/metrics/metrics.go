package metrics

import (
	"errors"

	"flightplan-bridge/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "flightplan_bridge"

// Metrics holds the sync pass collectors.
type Metrics struct {
	PassesTotal   *prometheus.CounterVec
	FlightsTotal  *prometheus.CounterVec
	WarningsTotal prometheus.Counter
	PassDuration  prometheus.Histogram
	LastSuccess   prometheus.Gauge
	PassesSkipped prometheus.Counter
	PassRunning   prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PassesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "passes_total",
			Help:      "Sync passes by status (ok, configuration, authentication, source, error).",
		}, []string{"status"}),
		FlightsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "flights_total",
			Help:      "Flight outcomes by result.",
		}, []string{"result"}),
		WarningsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "plan_warnings_total",
			Help:      "Warnings attached to accepted plans.",
		}),
		PassDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of completed sync passes.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed pass.",
		}),
		PassesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "passes_skipped_total",
			Help:      "Triggers dropped because a pass was already running.",
		}),
		PassRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pass_running",
			Help:      "1 while a pass is running.",
		}),
	}
}

// ObservePass records the outcome of a pass. res may be nil when err is set.
func (m *Metrics) ObservePass(res *reconcile.Result, err error) {
	m.PassesTotal.WithLabelValues(passStatus(err)).Inc()
	if res == nil {
		return
	}
	t := res.Totals
	for result, n := range map[reconcile.Outcome]int{
		reconcile.OutcomeCreated: t.Created,
		reconcile.OutcomeUpdated: t.Updated,
		reconcile.OutcomeSkipped: t.Skipped,
		reconcile.OutcomeDeleted: t.Deleted,
		reconcile.OutcomeFailed:  t.Failed,
	} {
		m.FlightsTotal.WithLabelValues(string(result)).Add(float64(n))
	}
	m.WarningsTotal.Add(float64(t.Warnings))
	m.PassDuration.Observe(res.Duration().Seconds())
	if err == nil {
		m.LastSuccess.Set(float64(res.FinishedAt.Unix()))
	}
}

// Running flags a pass in flight. Call the returned func when it ends.
func (m *Metrics) Running() func() {
	m.PassRunning.Set(1)
	return func() { m.PassRunning.Set(0) }
}

func passStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, reconcile.ErrConfiguration):
		return "configuration"
	case errors.Is(err, reconcile.ErrAuthentication):
		return "authentication"
	case errors.Is(err, reconcile.ErrSourceUnavailable):
		return "source"
	default:
		return "error"
	}
}
