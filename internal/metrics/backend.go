package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Backend and access-control Prometheus metrics.
var (
	BackendCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "backend_command_duration_seconds",
			Help:      "Search backend command duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"command", "status"},
	)

	AccessDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "access_decisions_total",
			Help:      "Access control decisions by required role and outcome",
		},
		[]string{"required", "outcome"}, // outcome: "allow" / "deny" / "not_found"
	)

	ScrollCursorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "scroll_cursors_total",
			Help:      "Scroll cursors opened, exhausted and released",
		},
		[]string{"event"}, // "opened" / "exhausted" / "released"
	)
)

var registerBackendOnce sync.Once

// RegisterBackendMetrics registers backend and access metrics. Safe to call more than once.
func RegisterBackendMetrics() {
	registerBackendOnce.Do(func() {
		prometheus.MustRegister(BackendCommandDuration)
		prometheus.MustRegister(AccessDecisionsTotal)
		prometheus.MustRegister(ScrollCursorsTotal)
	})
}

// ObserveCommand records one backend command.
func ObserveCommand(command string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	BackendCommandDuration.WithLabelValues(command, status).Observe(time.Since(start).Seconds())
}
