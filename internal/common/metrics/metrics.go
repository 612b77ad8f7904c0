package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_questions_total",
			Help: "Total number of questions processed, by outcome",
		},
		[]string{"outcome"},
	)

	RelevanceChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_relevance_checks_total",
			Help: "Relevance decisions by deciding stage and verdict",
		},
		[]string{"stage", "verdict"},
	)

	VerdictCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_verdict_cache_lookups_total",
			Help: "Relevance verdict cache lookups by result",
		},
		[]string{"result"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_search_requests_total",
			Help: "Search provider requests by provider and result status",
		},
		[]string{"provider", "status"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_llm_requests_total",
			Help: "Chat completion requests by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_llm_request_duration_seconds",
			Help:    "Duration of chat completion requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"purpose"},
	)

	QuestionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mentor_questions_active",
			Help: "Number of questions currently in the pipeline",
		},
	)
)
