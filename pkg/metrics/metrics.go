// Package metrics exposes bridge counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sailpot"

// Metrics groups the bridge collectors.
type Metrics struct {
	Received   prometheus.Counter
	Forwarded  *prometheus.CounterVec
	SinkErrors *prometheus.CounterVec
	LastValue  prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_received_total",
			Help:      "Readings received from the controller.",
		}),
		Forwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_forwarded_total",
			Help:      "Readings delivered to a sink.",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed deliveries per sink.",
		}, []string{"sink"}),
		LastValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "potentiometer_value",
			Help:      "Last potentiometer reading (0-65535).",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.Received, m.Forwarded, m.SinkErrors, m.LastValue)
	return m
}

// Observe records one received reading.
func (m *Metrics) Observe(value uint16) {
	m.Received.Inc()
	m.LastValue.Set(float64(value))
}

// Delivered records the outcome of one sink delivery.
func (m *Metrics) Delivered(sink string, err error) {
	if err != nil {
		m.SinkErrors.WithLabelValues(sink).Inc()
		return
	}
	m.Forwarded.WithLabelValues(sink).Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
