package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and ingestion metrics.
var (
	SearchLegDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_leg_duration_seconds",
			Help:      "Duration of each hybrid search leg",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"leg"}, // "semantic" / "lexical"
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_results",
			Help:      "Number of fused results returned per query",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	FusionDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fusion_dropped_total",
			Help:      "Candidates removed during fusion",
		},
		[]string{"reason"}, // "out_of_scope" / "below_min_score" / "unresolved"
	)

	LexicalIndexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "lexical_index_chunks",
			Help:      "Chunks currently held by the lexical index",
		},
	)

	LexicalRebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lexical_rebuilds_total",
			Help:      "Full lexical corpus replacements",
		},
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_documents_total",
			Help:      "Document uploads by outcome",
		},
		[]string{"file_type", "status"},
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_chunks_total",
			Help:      "Chunks written by successful uploads",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval and ingestion metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		SearchLegDuration,
		SearchResults,
		FusionDroppedTotal,
		LexicalIndexSize,
		LexicalRebuildsTotal,
		IngestDocumentsTotal,
		IngestChunksTotal,
	)
	searchMetricsRegistered = true
}
