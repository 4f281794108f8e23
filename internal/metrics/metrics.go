package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitylens_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "qualitylens_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	AnalyzerResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitylens_analyzer_results_total",
			Help: "Analyzer runs by outcome status (OK, INFO, FAIL, ERROR)",
		},
		[]string{"analyzer", "status"},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitylens_fallback_total",
			Help: "Times a degraded path replaced the primary one",
		},
		[]string{"reason"},
	)

	ReasoningCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitylens_reasoning_calls_total",
			Help: "Calls to the external reasoning service",
		},
		[]string{"operation", "outcome"},
	)

	ReasoningLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qualitylens_reasoning_latency_seconds",
			Help:    "Latency of reasoning service calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 40},
		},
		[]string{"operation"},
	)

	ReportJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitylens_report_jobs_total",
			Help: "Background report jobs by final status",
		},
		[]string{"status"},
	)
)

// Fallback reasons.
const (
	ReasonIntentPrimary = "intent_primary"
	ReasonTopicAnalysis = "topic_analysis"
	ReasonAllAnalyzers  = "all_analyzers_failed"
	ReasonGeneralIntent = "general_intent"
)
