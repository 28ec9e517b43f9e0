// Package metrics defines the Prometheus metric collectors used by the
// batch run and the query service, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInFlight   prometheus.Gauge
	SentencesTokenized     prometheus.Counter
	CorpusSources          prometheus.Gauge
	VocabularySize         prometheus.Gauge
	EmptyDescriptors       prometheus.Gauge
	DescriptorBuildSeconds prometheus.Histogram
	SnapshotOpsTotal       *prometheus.CounterVec
	SimilarityQueriesTotal *prometheus.CounterVec
	SimilarityLatency      *prometheus.HistogramVec
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter
	QuestionsTotal         *prometheus.CounterVec
	EvaluationAccuracy     prometheus.Gauge
	OutcomeEventsTotal     *prometheus.CounterVec
	RunsRecordedTotal      *prometheus.CounterVec
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SentencesTokenized: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_sentences_tokenized_total",
				Help: "Total sentences produced by the tokenizer.",
			},
		),
		CorpusSources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_sources",
				Help: "Number of source texts in the current descriptor table.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "descriptor_vocabulary_size",
				Help: "Number of distinct words in the descriptor table.",
			},
		),
		EmptyDescriptors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "descriptor_empty_total",
				Help: "Number of words whose descriptor has no co-occurrence partners.",
			},
		),
		DescriptorBuildSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "descriptor_build_duration_seconds",
				Help:    "Time spent building a descriptor table.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		SnapshotOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "descriptor_snapshot_ops_total",
				Help: "Snapshot operations by op (write, load) and status.",
			},
			[]string{"op", "status"},
		),
		SimilarityQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "similarity_queries_total",
				Help: "Similarity queries by kind (most_similar, pair, evaluate) and result (match, no_match, error).",
			},
			[]string{"kind", "result"},
		),
		SimilarityLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "similarity_latency_seconds",
				Help:    "Similarity query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"kind"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of answer cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of answer cache misses.",
			},
		),
		QuestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_questions_total",
				Help: "Evaluated test questions by outcome (correct, wrong, no_answer).",
			},
			[]string{"outcome"},
		),
		EvaluationAccuracy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evaluation_accuracy_percent",
				Help: "Accuracy of the most recent evaluation run.",
			},
		),
		OutcomeEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outcome_events_total",
				Help: "Outcome events by status (published, requeued, dropped, consumed).",
			},
			[]string{"status"},
		),
		RunsRecordedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_runs_recorded_total",
				Help: "Evaluation run records written to the run store, by status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SentencesTokenized,
		m.CorpusSources,
		m.VocabularySize,
		m.EmptyDescriptors,
		m.DescriptorBuildSeconds,
		m.SnapshotOpsTotal,
		m.SimilarityQueriesTotal,
		m.SimilarityLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.QuestionsTotal,
		m.EvaluationAccuracy,
		m.OutcomeEventsTotal,
		m.RunsRecordedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
