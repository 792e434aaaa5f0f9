package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conqp/digsigctl/pkg/result"
)

const namespace = "sysinfo"

// Metrics exports probe outcomes in the Prometheus exposition format.
// It implements probe.Observer.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	up       *prometheus.GaugeVec
	lastRun  *prometheus.GaugeVec
}

// NewMetrics creates the probe collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_runs_total",
			Help:      "Probe executions by outcome (success or error kind).",
		}, []string{"probe", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Probe execution time.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"probe"}),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_up",
			Help:      "Whether the last execution of the probe succeeded (1) or failed (0).",
		}, []string{"probe"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_last_run_timestamp_seconds",
			Help:      "Unix time of the last probe execution.",
		}, []string{"probe"}),
	}
	m.registry.MustRegister(
		m.runs, m.duration, m.up, m.lastRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one probe execution.
func (m *Metrics) Observe(name string, outcome result.Outcome, elapsed time.Duration) {
	label := "success"
	up := 1.0
	if !outcome.Ok() {
		label = outcome.Errors().Kind().String()
		up = 0
	}
	m.runs.WithLabelValues(name, label).Inc()
	m.duration.WithLabelValues(name).Observe(elapsed.Seconds())
	m.up.WithLabelValues(name).Set(up)
	m.lastRun.WithLabelValues(name).SetToCurrentTime()
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
