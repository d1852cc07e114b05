// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all dashboard metrics.
type Registry struct {
	// Gateway client
	GatewayRequests *prometheus.CounterVec   // labels: op, outcome
	GatewayDuration *prometheus.HistogramVec // labels: op

	// Posture engine
	MatrixBuilds       prometheus.Counter
	PostureResolutions prometheus.Counter

	// Mutations
	LoggingMutations *prometheus.CounterVec // labels: kind, outcome
	ForcedReloads    prometheus.Counter

	// Websocket
	WSClients prometheus.Gauge
}

// Get returns the singleton metrics registry.
func Get() *Registry {
	once.Do(func() {
		registry = &Registry{
			GatewayRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "parapet",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Gateway API requests by operation and outcome",
			}, []string{"op", "outcome"}),
			GatewayDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "parapet",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Gateway API request latency",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			MatrixBuilds: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "parapet",
				Subsystem: "posture",
				Name:      "matrix_builds_total",
				Help:      "Zone matrix computations",
			}),
			PostureResolutions: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "parapet",
				Subsystem: "posture",
				Name:      "resolutions_total",
				Help:      "Per-pair default action resolutions",
			}),
			LoggingMutations: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "parapet",
				Subsystem: "mutations",
				Name:      "logging_total",
				Help:      "Logging toggles by kind (single, bulk) and outcome",
			}, []string{"kind", "outcome"}),
			ForcedReloads: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "parapet",
				Subsystem: "mutations",
				Name:      "forced_reloads_total",
				Help:      "Collection reloads forced by bulk partial failure",
			}),
			WSClients: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "parapet",
				Subsystem: "ws",
				Name:      "clients",
				Help:      "Connected websocket clients",
			}),
		}
	})
	return registry
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	Get()
	return promhttp.Handler()
}
