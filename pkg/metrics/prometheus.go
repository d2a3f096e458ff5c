// Package metrics provides Prometheus metrics for the streak card service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Streak engine
	streakComputations prometheus.Counter
	streakLatency      prometheus.Histogram
	streakRecords      prometheus.Histogram

	// Contribution source
	upstreamFetches *prometheus.CounterVec
	upstreamLatency prometheus.Histogram

	// Presentation
	cardsRendered *prometheus.CounterVec
	renderLatency *prometheus.HistogramVec

	// Batch pipeline
	batchJobs        *prometheus.CounterVec
	queueOps         *prometheus.CounterVec
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	workerCount      prometheus.Gauge
	workerBusy       prometheus.Gauge
	workerLatency    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "streakcard",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.streakComputations = auto.NewCounter(m.counterOpts(
		"streak_computations_total", "Total number of streak computations"))
	m.streakLatency = auto.NewHistogram(m.histogramOpts(
		"streak_latency_milliseconds", "Streak computation latency in milliseconds", m.histogramBuckets))
	m.streakRecords = auto.NewHistogram(m.histogramOpts(
		"streak_records", "Number of daily records per computation",
		[]float64{0, 7, 31, 90, 180, 366, 731, 1500, 3000}))

	m.upstreamFetches = auto.NewCounterVec(m.counterOpts(
		"upstream_fetches_total", "Contribution calendar fetches by outcome"),
		[]string{"outcome"})
	m.upstreamLatency = auto.NewHistogram(m.histogramOpts(
		"upstream_latency_milliseconds", "Contribution calendar fetch latency in milliseconds",
		[]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}))

	m.cardsRendered = auto.NewCounterVec(m.counterOpts(
		"cards_rendered_total", "Rendered streak cards by format and theme"),
		[]string{"format", "theme"})
	m.renderLatency = auto.NewHistogramVec(m.histogramOpts(
		"render_latency_milliseconds", "Card render latency in milliseconds", m.histogramBuckets),
		[]string{"format"})

	m.batchJobs = auto.NewCounterVec(m.counterOpts(
		"batch_jobs_total", "Batch jobs by outcome"),
		[]string{"outcome"})
	m.queueOps = auto.NewCounterVec(m.counterOpts(
		"queue_operations_total", "Batch job queue operations by type"),
		[]string{"op"})
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the batch job queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum capacity of the batch job queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Batch job queue utilization (0-1)"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of batch workers"))
	m.workerBusy = auto.NewGauge(m.gaugeOpts("worker_busy", "Number of batch workers processing a job"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Batch job processing latency in milliseconds",
		[]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})
	m.rateLimited = auto.NewCounter(m.counterOpts(
		"http_rate_limited_total", "Requests rejected by the per-client rate limiter"))

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordStreakComputation records one engine run over n records.
func RecordStreakComputation(records int, latencyMs float64) {
	globalManager.streakComputations.Inc()
	globalManager.streakRecords.Observe(float64(records))
	globalManager.streakLatency.Observe(latencyMs)
}

// RecordUpstreamFetch records a contribution calendar fetch. outcome is "ok",
// "not_found" or "error".
func RecordUpstreamFetch(outcome string, latencyMs float64) {
	globalManager.upstreamFetches.WithLabelValues(outcome).Inc()
	globalManager.upstreamLatency.Observe(latencyMs)
}

// RecordCardRendered records a rendered card.
func RecordCardRendered(format, theme string, latencyMs float64) {
	globalManager.cardsRendered.WithLabelValues(format, theme).Inc()
	globalManager.renderLatency.WithLabelValues(format).Observe(latencyMs)
}

// RecordBatchJob records a batch job outcome: "ok", "error" or "rejected".
func RecordBatchJob(outcome string) {
	globalManager.batchJobs.WithLabelValues(outcome).Inc()
}

// RecordQueueEnqueue records a successful enqueue.
func RecordQueueEnqueue() {
	globalManager.queueOps.WithLabelValues("enqueue").Inc()
}

// RecordQueueEnqueueError records a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueOps.WithLabelValues("enqueue_error").Inc()
}

// RecordQueueDequeue records a job handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueOps.WithLabelValues("dequeue").Inc()
}

// RecordWorkerProcessingLatency records how long a worker spent on one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerBusy adjusts the number of busy workers by delta.
func AddWorkerBusy(delta int) {
	globalManager.workerBusy.Add(float64(delta))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rate limited counter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
