package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_generation_attempts_total",
			Help: "Total number of SQL generation attempts by outcome.",
		},
		[]string{"outcome"},
	)
	generationExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_generation_exhausted_total",
			Help: "Total number of generation runs that used up all attempts.",
		},
	)
	validatorRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_validator_rejections_total",
			Help: "Total number of candidate SQL rejections by policy rule.",
		},
		[]string{"rule"},
	)
	llmCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_llm_call_duration_seconds",
			Help:    "LLM completion call latency by purpose.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"purpose"},
	)
	queryExecutionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_execution_seconds",
			Help:    "Validated SQL execution latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	queryResultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_result_rows",
			Help:    "Row counts returned by executed queries, before response capping.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		generationAttemptsTotal,
		generationExhaustedTotal,
		validatorRejectionsTotal,
		llmCallDurationSeconds,
		queryExecutionSeconds,
		queryResultRows,
	)
}

func ObserveGenerationAttempt(outcome string) {
	generationAttemptsTotal.WithLabelValues(outcome).Inc()
}

func IncrementGenerationExhausted() {
	generationExhaustedTotal.Inc()
}

func ObserveValidatorRejection(rule string) {
	validatorRejectionsTotal.WithLabelValues(rule).Inc()
}

func ObserveLLMCall(purpose string, elapsed time.Duration) {
	llmCallDurationSeconds.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

func ObserveQueryExecution(elapsed time.Duration, rows int) {
	queryExecutionSeconds.Observe(elapsed.Seconds())
	queryResultRows.Observe(float64(rows))
}
