// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "humanbench"

// Metrics holds every collector, registered against one registry
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     *prometheus.CounterVec

	UsersCreated    *prometheus.CounterVec
	ScoresSubmitted *prometheus.CounterVec
	RoomsCreated    prometheus.Counter
	RoomJoins       *prometheus.CounterVec
	CodeCollisions  prometheus.Counter
}

// New creates a registry with the Go and process collectors plus the
// application metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		RateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),

		UsersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "users_created_total",
				Help:      "Users created, by kind (guest or registered)",
			},
			[]string{"kind"},
		),
		ScoresSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scores_submitted_total",
				Help:      "Benchmark scores stored, by category",
			},
			[]string{"category"},
		),
		RoomsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rooms_created_total",
				Help:      "Rooms created",
			},
		),
		RoomJoins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "room_joins_total",
				Help:      "Room join requests, by outcome (joined or already_member)",
			},
			[]string{"outcome"},
		),
		CodeCollisions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "room_code_collisions_total",
				Help:      "Generated room codes that were already taken",
			},
		),
	}
}
