package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ranking pipeline Prometheus metrics.
var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each ranking pipeline stage",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	PipelineFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Failed search requests by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	MalformedChunkRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_chunk_records_total",
			Help:      "Chunk store rows dropped because they failed to decode",
		},
	)

	AuthorityDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authority_rerank_skipped_total",
			Help:      "Searches served without authority reranking because the module is disabled",
		},
	)
)

var registerPipeline sync.Once

// RegisterPipelineMetrics registers the ranking pipeline metrics. Safe to call more than once.
func RegisterPipelineMetrics() {
	registerPipeline.Do(func() {
		prometheus.MustRegister(
			StageDuration,
			PipelineFailuresTotal,
			MalformedChunkRecordsTotal,
			AuthorityDegradedTotal,
		)
	})
}
