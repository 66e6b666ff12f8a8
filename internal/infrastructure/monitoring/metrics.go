package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Tool metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	ToolErrors   *prometheus.CounterVec

	// Move metrics
	FilesMoved      prometheus.Counter
	MoveFailures    prometheus.Counter
	ProjectsSkipped prometheus.Counter

	// Batch metrics
	BatchesActive prometheus.Gauge
	BatchDuration prometheus.Histogram

	// Provider metrics
	ProviderErrors *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for the stats tool - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the stats tool
type Snapshot struct {
	ToolCalls       int64
	ToolErrors      int64
	FilesMoved      int64
	MoveFailures    int64
	ProjectsSkipped int64
	ActiveBatches   int64
	TotalDuration   float64 // sum of all tool call durations
	CallCount       int64   // count for averaging
}

// NewMetrics creates a metrics collector on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector on the given registerer.
// Tests pass a fresh prometheus.NewRegistry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// Tool metrics
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "organizer_tool_duration_seconds",
				Help:    "Tool call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"tool"},
		),
		ToolErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_tool_errors_total",
				Help: "Total number of tool errors",
			},
			[]string{"tool", "error_kind"},
		),

		// Move metrics
		FilesMoved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "organizer_files_moved_total",
				Help: "Total number of files moved",
			},
		),
		MoveFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "organizer_move_failures_total",
				Help: "Total number of failed moves",
			},
		),
		ProjectsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "organizer_projects_skipped_total",
				Help: "Total number of project directories left untouched",
			},
		),

		// Batch metrics
		BatchesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizer_batches_active",
				Help: "Number of move batches currently executing",
			},
		),
		BatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "organizer_batch_duration_seconds",
				Help:    "Move batch duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		// Provider metrics
		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_provider_errors_total",
				Help: "Total number of filesystem provider errors",
			},
			[]string{"call"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizer_uptime_seconds",
				Help: "Organizer uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordToolCall records a tool invocation
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.ToolCalls++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.CallCount++
	if status != "ok" {
		m.snapshot.ToolErrors++
	}
	m.mu.Unlock()
}

// RecordToolError records a tool error by kind
func (m *Metrics) RecordToolError(tool, errorKind string) {
	m.ToolErrors.WithLabelValues(tool, errorKind).Inc()
}

// RecordProviderError records a failed provider call
func (m *Metrics) RecordProviderError(call string) {
	m.ProviderErrors.WithLabelValues(call).Inc()
}

// AddFilesMoved adds to the moved files counter
func (m *Metrics) AddFilesMoved(count int) {
	m.FilesMoved.Add(float64(count))
	m.mu.Lock()
	m.snapshot.FilesMoved += int64(count)
	m.mu.Unlock()
}

// AddMoveFailures adds to the failed moves counter
func (m *Metrics) AddMoveFailures(count int) {
	m.MoveFailures.Add(float64(count))
	m.mu.Lock()
	m.snapshot.MoveFailures += int64(count)
	m.mu.Unlock()
}

// AddProjectsSkipped adds to the skipped projects counter
func (m *Metrics) AddProjectsSkipped(count int) {
	m.ProjectsSkipped.Add(float64(count))
	m.mu.Lock()
	m.snapshot.ProjectsSkipped += int64(count)
	m.mu.Unlock()
}

// BatchStarted marks a batch as executing
func (m *Metrics) BatchStarted() {
	m.BatchesActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveBatches++
	m.mu.Unlock()
}

// BatchFinished marks a batch as done and records its duration
func (m *Metrics) BatchFinished(duration time.Duration) {
	m.BatchesActive.Dec()
	m.BatchDuration.Observe(duration.Seconds())
	m.mu.Lock()
	m.snapshot.ActiveBatches--
	m.mu.Unlock()
}

// GetSnapshot returns current metric values
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
