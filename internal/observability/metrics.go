package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	apiRequestsTotal         *prometheus.CounterVec
	apiLatencySeconds        *prometheus.HistogramVec
	apiErrorsTotal           *prometheus.CounterVec
	submissionsRecordedTotal *prometheus.CounterVec
	submissionsRejectedTotal *prometheus.CounterVec
	gradingsRecordedTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
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
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_recorded_total",
			Help: "Submission attempts recorded, by resulting status.",
		}, []string{"status"})

		submissionsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_rejected_total",
			Help: "Submission attempts rejected by policy, by reason.",
		}, []string{"reason"})

		gradingsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradings_recorded_total",
			Help: "Grading actions persisted, by letter grade.",
		}, []string{"letter"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsRecordedTotal,
			submissionsRejectedTotal,
			gradingsRecordedTotal,
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

// SubmissionsRecorded exposes the counter for recorded submission attempts.
func SubmissionsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsRecordedTotal
}

// SubmissionsRejected exposes the counter for policy-rejected attempts.
func SubmissionsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsRejectedTotal
}

// GradingsRecorded exposes the counter for grading actions.
func GradingsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsRecordedTotal
}
