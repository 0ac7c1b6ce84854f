package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts workflow transitions by operation and outcome
type Metrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the workflow collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "police_case",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Workflow operations by outcome kind.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "police_case",
			Subsystem: "workflow",
			Name:      "transition_duration_seconds",
			Help:      "Time spent inside workflow transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.transitions, m.duration)
	return m
}

func (m *Metrics) observe(op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.transitions.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(took.Seconds())
}
