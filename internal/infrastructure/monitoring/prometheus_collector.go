package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Relay gauges
	relayConnections prometheus.Gauge
	relayRooms       prometheus.Gauge

	// Counters
	relayEventsTotal      *prometheus.CounterVec
	relayDroppedTotal     *prometheus.CounterVec
	upstreamRequestsTotal *prometheus.CounterVec

	// Histograms
	upstreamLatency *prometheus.HistogramVec
	httpDuration    *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		relayConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "meetgate_relay_connections",
			Help: "Number of live relay connections",
		}),

		relayRooms: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "meetgate_relay_rooms",
			Help: "Number of rooms with at least one connection",
		}),

		relayEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meetgate_relay_events_total",
			Help: "Relay events processed, by event name",
		}, []string{"event"}),

		relayDroppedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meetgate_relay_dropped_total",
			Help: "Relay messages dropped, by reason",
		}, []string{"reason"}),

		upstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meetgate_upstream_requests_total",
			Help: "Upstream requests, by upstream and outcome",
		}, []string{"upstream", "outcome"}),

		upstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meetgate_upstream_latency_seconds",
			Help:    "Upstream request latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"upstream"}),

		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meetgate_http_request_duration_seconds",
			Help:    "Gateway HTTP request duration",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
	}
}

func (p *PrometheusCollector) RecordConnectionOpened() {
	p.relayConnections.Inc()
}

func (p *PrometheusCollector) RecordConnectionClosed() {
	p.relayConnections.Dec()
}

func (p *PrometheusCollector) SetRoomCount(n int) {
	p.relayRooms.Set(float64(n))
}

func (p *PrometheusCollector) RecordRelayEvent(event string) {
	p.relayEventsTotal.WithLabelValues(event).Inc()
}

func (p *PrometheusCollector) RecordDroppedMessage(reason string) {
	p.relayDroppedTotal.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) RecordUpstreamRequest(upstream, outcome string, duration time.Duration) {
	p.upstreamRequestsTotal.WithLabelValues(upstream, outcome).Inc()
	p.upstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	p.httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
