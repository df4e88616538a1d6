package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/batchstore"
)

// directChannel labels dispatches that bypass every channel.
const directChannel = "direct"

// MetricsConfig configures the Prometheus recorder.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "batchstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus recorder.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the dispatch duration buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "batchstore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records store activity in Prometheus.
type Metrics struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchActions  prometheus.Histogram
	queueDepth       *prometheus.GaugeVec
	flushesTotal     *prometheus.CounterVec
	flushSize        prometheus.Histogram
	clearedTotal     *prometheus.CounterVec
	connections      prometheus.Gauge
	snapshotsTotal   *prometheus.CounterVec

	now func() time.Time
}

var _ batchstore.Instrument = (*Metrics)(nil)

// NewMetrics registers the store metrics with the configured registry.
// Registering twice with the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of dispatches routed by the store",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch routing and delivery duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"channel"}),

		dispatchActions: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_actions",
			Help:        "Number of plain actions carried by one dispatch",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queue_depth",
			Help:        "Pending messages per channel",
			ConstLabels: config.ConstLabels,
		}, []string{"channel"}),

		flushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of channel flushes",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "status"}),

		flushSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_size",
			Help:        "Messages delivered per channel flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		clearedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cleared_total",
			Help:        "Total number of queued messages discarded",
			ConstLabels: config.ConstLabels,
		}, []string{"channel"}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_connections",
			Help:        "Number of open websocket subscribers",
			ConstLabels: config.ConstLabels,
		}),

		snapshotsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshots_total",
			Help:        "Total number of state snapshot uploads",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		now: time.Now,
	}
}

// StartDispatch implements batchstore.Instrument.
func (m *Metrics) StartDispatch(channel string, leaves int) func(error) {
	label := channelLabel(channel)
	start := m.now()
	m.dispatchActions.Observe(float64(leaves))

	return func(err error) {
		m.dispatchDuration.WithLabelValues(label).Observe(m.now().Sub(start).Seconds())
		m.dispatchesTotal.WithLabelValues(label, status(err)).Inc()
	}
}

// Enqueued implements batchstore.Instrument.
func (m *Metrics) Enqueued(channel string, depth int) {
	m.queueDepth.WithLabelValues(channel).Set(float64(depth))
}

// Flushed implements batchstore.Instrument.
func (m *Metrics) Flushed(channel string, size int, err error) {
	m.queueDepth.WithLabelValues(channel).Set(0)
	m.flushesTotal.WithLabelValues(channel, status(err)).Inc()
	m.flushSize.Observe(float64(size))
}

// Cleared implements batchstore.Instrument.
func (m *Metrics) Cleared(channel string, dropped int) {
	m.queueDepth.WithLabelValues(channel).Set(0)
	m.clearedTotal.WithLabelValues(channel).Add(float64(dropped))
}

// ConnOpened records a new websocket subscriber.
func (m *Metrics) ConnOpened() {
	m.connections.Inc()
}

// ConnClosed records a closed websocket subscriber.
func (m *Metrics) ConnClosed() {
	m.connections.Dec()
}

// SnapshotSaved records the outcome of a snapshot upload.
func (m *Metrics) SnapshotSaved(err error) {
	m.snapshotsTotal.WithLabelValues(status(err)).Inc()
}

func channelLabel(channel string) string {
	if channel == "" {
		return directChannel
	}
	return channel
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
