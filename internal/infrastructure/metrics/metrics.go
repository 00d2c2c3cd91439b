// Package metrics exposes Prometheus collectors for the HTTP API, the movement
// ledger, the outbox relay and the database pool.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"partsledger/internal/domain/ledger"
	"partsledger/internal/infrastructure/storage/postgres"
)

const namespace = "partsledger"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	movementsAppended     *prometheus.CounterVec
	movementsDeduplicated *prometheus.CounterVec

	outboxRelayed prometheus.Counter
	outboxFailed  prometheus.Counter
}

var _ ledger.Observer = (*Metrics)(nil)

// New creates a registry with the process and Go collectors plus the ledger metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		movementsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "movements_appended_total",
			Help:      "Movement records written, by event type.",
		}, []string{"event_type"}),
		movementsDeduplicated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "movements_deduplicated_total",
			Help:      "Appends suppressed by the (product, source, event type) key.",
		}, []string{"event_type"}),
		outboxRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "relayed_total",
			Help:      "Outbox messages published to the broker.",
		}),
		outboxFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "relay_errors_total",
			Help:      "Outbox relay passes that failed.",
		}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.movementsAppended, m.movementsDeduplicated,
		m.outboxRelayed, m.outboxFailed,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// MovementAppended implements ledger.Observer.
func (m *Metrics) MovementAppended(eventType ledger.EventType) {
	m.movementsAppended.WithLabelValues(string(eventType)).Inc()
}

// MovementDeduplicated implements ledger.Observer.
func (m *Metrics) MovementDeduplicated(eventType ledger.EventType) {
	m.movementsDeduplicated.WithLabelValues(string(eventType)).Inc()
}

// OutboxRelayed counts published outbox messages.
func (m *Metrics) OutboxRelayed(n int) {
	m.outboxRelayed.Add(float64(n))
}

// OutboxFailed counts a failed relay pass.
func (m *Metrics) OutboxFailed() {
	m.outboxFailed.Inc()
}

// GinMiddleware records request count and latency. The route label is the
// registered path template, so ids do not explode cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RegisterPool exposes connection pool gauges.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	gauge := func(name, help string, value func(postgres.PoolStats) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(postgres.GetPoolStats(pool)) })
	}

	m.registry.MustRegister(
		gauge("total_connections", "Open connections.", func(s postgres.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("acquired_connections", "Connections in use.", func(s postgres.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("idle_connections", "Idle connections.", func(s postgres.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("max_connections", "Pool size limit.", func(s postgres.PoolStats) float64 { return float64(s.MaxConns) }),
	)
}
