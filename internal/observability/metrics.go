package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	quizScoringsTotal     prometheus.Counter
	submissionGradingJobs prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lms_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		quizScoringsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_quiz_scorings_total",
			Help: "Total number of quiz submissions scored.",
		})

		submissionGradingJobs = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_submission_gradings_total",
			Help: "Total number of assignment submissions graded.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			quizScoringsTotal,
			submissionGradingJobs,
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

// QuizScorings exposes the counter for scored quiz submissions.
func QuizScorings() prometheus.Counter {
	RegisterMetrics()
	return quizScoringsTotal
}

// SubmissionGradings exposes the counter for graded assignment submissions.
func SubmissionGradings() prometheus.Counter {
	RegisterMetrics()
	return submissionGradingJobs
}
