package scheduler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "retention"

// Outcomes a scheduled deletion is counted under.
const (
	OutcomeDeleted         = "deleted"
	OutcomeSkippedHeld     = "skipped_held"
	OutcomeSkippedConflict = "skipped_conflict"
	OutcomeFailed          = "failed"
)

// Metrics holds the Prometheus collectors of the background jobs.
type Metrics struct {
	Deletions     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	RemindersSent *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Deletions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "deletions_total",
				Help:      "Scheduled deletion candidates by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "run_duration_seconds",
				Help:      "Duration of each background job run in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
			},
			[]string{"job"},
		),
		RemindersSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_sent_total",
				Help:      "Deletion reminders sent by milestone",
			},
			[]string{"milestone"},
		),
	}
}

// Handler exposes the collectors g gathers.
// A nil g exposes the default registry.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}

	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
