package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LassiHeikkila/WioLTE/module"
)

// Metrics collects gateway metrics in its own registry.
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	inboundTotal      prometheus.Counter
	forwardFailures   prometheus.Counter
	signalDBm         prometheus.Gauge
}

// NewMetrics creates and registers the gateway metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
	}

	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wiolte_operations_total",
			Help: "Total number of modem operations by outcome",
		},
		[]string{"operation", "result"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wiolte_operation_duration_seconds",
			Help:    "Duration of modem operations",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	m.inboundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wiolte_sms_inbound_total",
			Help: "Total number of received SMS messages",
		},
	)

	m.forwardFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wiolte_sms_forward_failures_total",
			Help: "Total number of received SMS messages that could not be forwarded",
		},
	)

	m.signalDBm = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wiolte_signal_dbm",
			Help: "Last received signal strength in dBm",
		},
	)

	registry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.inboundTotal,
		m.forwardFailures,
		m.signalDBm,
		collectors.NewGoCollector(),
	)

	return m
}

// Observe records the outcome of one operation started at start.
// The result label is the error code of err.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	m.operationsTotal.WithLabelValues(operation, module.CodeOf(err).String()).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
