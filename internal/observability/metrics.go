package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	httpErrorsTotal         *prometheus.CounterVec
	attendanceDaysCreated   prometheus.Counter
	attendanceMarksTotal    *prometheus.CounterVec
	attendanceFinalizeTotal *prometheus.CounterVec
	attendanceReopenTotal   prometheus.Counter
	reportCacheLookupsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		attendanceDaysCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_days_created_total",
			Help: "Attendance days created on first access.",
		})

		attendanceMarksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_marks_total",
			Help: "Student attendance marks written, by status.",
		}, []string{"status"})

		attendanceFinalizeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_finalize_total",
			Help: "Finalize attempts, by outcome.",
		}, []string{"outcome"})

		attendanceReopenTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_reopen_total",
			Help: "Finalized attendance days reopened by administrators.",
		})

		reportCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Class report cache lookups, by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			attendanceDaysCreated,
			attendanceMarksTotal,
			attendanceFinalizeTotal,
			attendanceReopenTotal,
			reportCacheLookupsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AttendanceDaysCreated counts attendance days created lazily.
func AttendanceDaysCreated() prometheus.Counter {
	RegisterMetrics()
	return attendanceDaysCreated
}

// AttendanceMarks counts status writes.
func AttendanceMarks() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceMarksTotal
}

// AttendanceFinalize counts finalize attempts labelled by outcome.
func AttendanceFinalize() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceFinalizeTotal
}

// AttendanceReopen counts reopened days.
func AttendanceReopen() prometheus.Counter {
	RegisterMetrics()
	return attendanceReopenTotal
}

// ReportCacheLookups counts report cache hits and misses.
func ReportCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheLookupsTotal
}
