package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	registry *prometheus.Registry

	sessionsOpened  prometheus.Counter
	sessionsClosed  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	sessionDuration prometheus.Histogram

	spansRecorded *prometheus.CounterVec

	sinkWriteDuration prometheus.Histogram
	sinkErrors        *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			registry: prometheus.NewRegistry(),
			sessionsOpened: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "valiqor_sessions_opened_total",
					Help: "Total trace sessions opened.",
				},
			),
			sessionsClosed: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "valiqor_sessions_closed_total",
					Help: "Total trace sessions closed by status.",
				},
				[]string{"status"},
			),
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "valiqor_active_sessions",
					Help: "Trace sessions currently open.",
				},
			),
			sessionDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "valiqor_session_duration_seconds",
					Help:    "Trace session duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			spansRecorded: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "valiqor_spans_recorded_total",
					Help: "Total spans accepted or rejected by status.",
				},
				[]string{"status"},
			),
			sinkWriteDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "valiqor_sink_write_duration_seconds",
					Help:    "Duration of one sink write plus fsync in seconds.",
					Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
				},
			),
			sinkErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "valiqor_sink_errors_total",
					Help: "Total sink failures by operation.",
				},
				[]string{"op"},
			),
		}

		m.registry.MustRegister(
			m.sessionsOpened,
			m.sessionsClosed,
			m.activeSessions,
			m.sessionDuration,
			m.spansRecorded,
			m.sinkWriteDuration,
			m.sinkErrors,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// Gatherer exposes the package registry
func Gatherer() prometheus.Gatherer {
	return getMetrics().registry
}

// WriteTextfile writes all metrics to path in the node-exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func RecordSessionOpened() {
	m := getMetrics()
	m.sessionsOpened.Inc()
	m.activeSessions.Inc()
}

func RecordSessionClosed(duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "ok"
	}
	m.sessionsClosed.WithLabelValues(status).Inc()
	m.activeSessions.Dec()
	m.sessionDuration.Observe(duration.Seconds())
}

func RecordSpan(success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "ok"
	}
	m.spansRecorded.WithLabelValues(status).Inc()
}

func RecordSinkWrite(duration time.Duration) {
	getMetrics().sinkWriteDuration.Observe(duration.Seconds())
}

func RecordSinkError(op string) {
	getMetrics().sinkErrors.WithLabelValues(op).Inc()
}
