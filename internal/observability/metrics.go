package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	computationRunsTotal *prometheus.CounterVec
	studentsProcessed    *prometheus.CounterVec
	batchDurationSeconds *prometheus.HistogramVec
	bufferFlushesTotal   prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the API and the
// computation engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		computationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "computation_runs_total",
			Help: "Department computation runs by terminal status and mode.",
		}, []string{"status", "mode"})

		studentsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "computation_students_total",
			Help: "Students processed by outcome.",
		}, []string{"outcome"})

		batchDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "computation_batch_duration_seconds",
			Help:    "Duration of one student batch, fetch included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"mode"})

		bufferFlushesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "computation_buffer_flushes_total",
			Help: "Number of bulk persistence buffer flushes.",
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			computationRunsTotal, studentsProcessed, batchDurationSeconds,
			bufferFlushesTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ComputationRuns exposes the run outcome counter.
func ComputationRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return computationRunsTotal
}

// StudentsProcessed exposes the per-student outcome counter.
func StudentsProcessed() *prometheus.CounterVec {
	RegisterMetrics()
	return studentsProcessed
}

// BatchDuration exposes the batch latency histogram.
func BatchDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return batchDurationSeconds
}

// BufferFlushes exposes the flush counter.
func BufferFlushes() prometheus.Counter {
	RegisterMetrics()
	return bufferFlushesTotal
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
