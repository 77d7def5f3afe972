// Package metrics provides Prometheus metrics collection
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/R3E-Network/cachegrid/infrastructure/runtime"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Cache command metrics
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Replication/provisioning metrics
	ReplicationOpsTotal *prometheus.CounterVec
	InstancesActive     prometheus.Gauge
	NodesOnline         prometheus.Gauge

	// Service health
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP metrics
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		// Error metrics
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		// Cache command metrics
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_commands_total",
				Help: "Total number of dispatched cache commands",
			},
			[]string{"service", "namespace", "command", "status"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cache_command_duration_seconds",
				Help:    "Cache command dispatch duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .5, 1},
			},
			[]string{"service", "namespace", "command"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache key hits",
			},
			[]string{"service", "namespace"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache key misses",
			},
			[]string{"service", "namespace"},
		),

		// Replication/provisioning metrics
		ReplicationOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replication_ops_total",
				Help: "Total number of ops fanned out to replicas",
			},
			[]string{"service", "mode", "status"},
		),
		InstancesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "provisioning_instances_active",
				Help: "Current number of active provisioned instances",
			},
		),
		NodesOnline: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "provisioning_nodes_online",
				Help: "Current number of online cluster nodes",
			},
		),

		// Service health
		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	// Register all collectors
	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.ErrorsTotal,
			m.CommandsTotal,
			m.CommandDuration,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.ReplicationOpsTotal,
			m.InstancesActive,
			m.NodesOnline,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	// Set service info
	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", getEnvironment()).Set(1)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.RequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordError records an error
func (m *Metrics) RecordError(service, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(service, errorType, operation).Inc()
}

// RecordCommand records one dispatched cache command.
func (m *Metrics) RecordCommand(service, namespace, command, status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(service, namespace, command, status).Inc()
	m.CommandDuration.WithLabelValues(service, namespace, command).Observe(duration.Seconds())
}

// RecordCacheHit records a keyspace hit for namespace.
func (m *Metrics) RecordCacheHit(service, namespace string) {
	m.CacheHitsTotal.WithLabelValues(service, namespace).Inc()
}

// RecordCacheMiss records a keyspace miss for namespace.
func (m *Metrics) RecordCacheMiss(service, namespace string) {
	m.CacheMissesTotal.WithLabelValues(service, namespace).Inc()
}

// RecordReplicationOp records one replica fan-out attempt.
func (m *Metrics) RecordReplicationOp(service, mode, status string) {
	m.ReplicationOpsTotal.WithLabelValues(service, mode, status).Inc()
}

// SetInstancesActive sets the current active-instance gauge.
func (m *Metrics) SetInstancesActive(count int) {
	m.InstancesActive.Set(float64(count))
}

// SetNodesOnline sets the current online-node gauge.
func (m *Metrics) SetNodesOnline(count int) {
	m.NodesOnline.Set(float64(count))
}

// UpdateUptime updates the service uptime
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

// IncrementInFlight increments the in-flight requests counter
func (m *Metrics) IncrementInFlight() {
	m.RequestsInFlight.Inc()
}

// DecrementInFlight decrements the in-flight requests counter
func (m *Metrics) DecrementInFlight() {
	m.RequestsInFlight.Dec()
}

// Helper functions

func getEnvironment() string {
	return string(runtime.Env())
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !runtime.IsProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
