// Package metrics exposes Prometheus counters for the resolver and the relay.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tiktok_downloader"

// Operation labels.
const (
	OperationResolve = "resolve"
	OperationRelay   = "relay"
)

// OutcomeSuccess is the outcome label for requests that did not fail.
const OutcomeSuccess = "success"

type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	relayBytes       prometheus.Histogram
	relayInFlight    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Handled download requests by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Latency of calls to the metadata API and the media host.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"target"},
		),
		// 100KB .. 100MB
		relayBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "relay_bytes",
				Help:      "Size of media bodies relayed to clients.",
				Buckets:   prometheus.ExponentialBuckets(100*1024, 10, 4),
			},
		),
		relayInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "relay_in_flight",
				Help:      "Media transfers currently buffered in memory.",
			},
		),
	}

	reg.MustRegister(m.requestsTotal, m.upstreamDuration, m.relayBytes, m.relayInFlight)

	return m
}

// Handler serves the exposition format for the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveUpstream(target string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (m *Metrics) ObserveRelayBytes(n int) {
	if m == nil {
		return
	}
	m.relayBytes.Observe(float64(n))
}

func (m *Metrics) RelayStarted() {
	if m == nil {
		return
	}
	m.relayInFlight.Inc()
}

func (m *Metrics) RelayFinished() {
	if m == nil {
		return
	}
	m.relayInFlight.Dec()
}
