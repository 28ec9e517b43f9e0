// Package similarity ties the tokenizer, descriptor builder, scorer,
// selector and evaluator together behind an Engine that owns one
// read-only descriptor table.
package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/evaluator"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/scorer"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/segment"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/selector"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/tracing"
)

// Engine answers similarity queries against a descriptor table. The table
// is fixed at construction, so an Engine is safe for concurrent readers.
type Engine struct {
	table     descriptor.Table
	stats     descriptor.Stats
	sources   int
	sentences int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Build tokenizes every source text and builds the engine's table. m may
// be nil.
func Build(texts []string, m *metrics.Metrics) *Engine {
	return BuildContext(context.Background(), texts, m)
}

// BuildContext is Build with tokenize and build spans recorded under the
// span carried by ctx, if any.
func BuildContext(ctx context.Context, texts []string, m *metrics.Metrics) *Engine {
	logger := slog.Default().With("component", "similarity-engine")
	start := time.Now()

	_, span := tracing.StartSpan(ctx, "tokenize")
	sources := tokenizer.TokenizeAll(texts)
	sentences := tokenizer.CountSentences(sources)
	span.SetAttr("sources", len(sources))
	span.SetAttr("sentences", sentences)
	span.End()
	logger.Debug("corpus tokenized", "sources", len(sources), "sentences", sentences)

	_, span = tracing.StartSpan(ctx, "build")
	table := descriptor.Build(sources)
	e := newEngine(table, len(texts), sentences, m, logger)
	span.SetAttr("words", e.stats.Words)
	span.SetAttr("pairs", e.stats.Pairs)
	span.End()

	elapsed := time.Since(start)
	if m != nil {
		m.SentencesTokenized.Add(float64(sentences))
		m.DescriptorBuildSeconds.Observe(elapsed.Seconds())
	}
	logger.Info("descriptor table built",
		"sources", len(texts),
		"sentences", sentences,
		"words", e.stats.Words,
		"empty_descriptors", e.stats.EmptyDescriptors,
		"pairs", e.stats.Pairs,
		"duration_ms", elapsed.Milliseconds(),
	)
	return e
}

// FromTable wraps an already built table.
func FromTable(table descriptor.Table, m *metrics.Metrics) *Engine {
	return newEngine(table, 0, 0, m, slog.Default().With("component", "similarity-engine"))
}

// LoadSnapshots reads every snapshot and merges them into one table, so
// tables built from separate corpora combine into the table of their union.
func LoadSnapshots(paths []string, m *metrics.Metrics) (*Engine, error) {
	logger := slog.Default().With("component", "similarity-engine")
	if len(paths) == 0 {
		return nil, fmt.Errorf("no snapshots to load")
	}
	table := make(descriptor.Table)
	for _, path := range paths {
		part, err := loadSnapshot(path)
		if err != nil {
			recordSnapshot(m, "load", err)
			return nil, fmt.Errorf("loading snapshot %s: %w", path, err)
		}
		recordSnapshot(m, "load", nil)
		logger.Info("loaded snapshot", "path", path, "words", len(part))
		table.Merge(part)
	}
	e := newEngine(table, len(paths), 0, m, logger)
	logger.Info("snapshot recovery complete",
		"snapshots_loaded", len(paths),
		"words", e.stats.Words,
	)
	return e, nil
}

func loadSnapshot(path string) (descriptor.Table, error) {
	r, err := segment.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Load()
}

func newEngine(table descriptor.Table, sources, sentences int, m *metrics.Metrics, logger *slog.Logger) *Engine {
	e := &Engine{
		table:     table,
		stats:     table.Stats(),
		sources:   sources,
		sentences: sentences,
		metrics:   m,
		logger:    logger,
	}
	if m != nil {
		m.CorpusSources.Set(float64(sources))
		m.VocabularySize.Set(float64(e.stats.Words))
		m.EmptyDescriptors.Set(float64(e.stats.EmptyDescriptors))
	}
	return e
}

// SaveSnapshot writes the table to path.
func (e *Engine) SaveSnapshot(path string) error {
	err := segment.NewWriter().Write(path, e.table)
	recordSnapshot(e.metrics, "write", err)
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	e.logger.Info("snapshot written", "path", path, "words", e.stats.Words)
	return nil
}

func (e *Engine) Table() descriptor.Table {
	return e.table
}

func (e *Engine) Stats() descriptor.Stats {
	return e.stats
}

func (e *Engine) Sources() int {
	return e.sources
}

func (e *Engine) Sentences() int {
	return e.sentences
}

// Known reports whether word has a descriptor.
func (e *Engine) Known(word string) bool {
	_, ok := e.table.Lookup(word)
	return ok
}

// MostSimilar returns the choice most similar to word, or "".
func (e *Engine) MostSimilar(word string, choices []string) string {
	start := time.Now()
	best := selector.MostSimilar(word, choices, e.table)
	e.observe("most_similar", best != "", start)
	return best
}

// Rank scores every choice and returns the winner alongside.
func (e *Engine) Rank(word string, choices []string) ([]selector.Candidate, string) {
	start := time.Now()
	candidates := selector.Rank(word, choices, e.table)
	best, ok := selector.Best(candidates)
	e.observe("most_similar", ok, start)
	if !ok {
		return candidates, ""
	}
	return candidates, best.Word
}

// Similarity scores a pair of words.
func (e *Engine) Similarity(a, b string) scorer.Score {
	start := time.Now()
	s := scorer.Similarity(e.table, a, b)
	e.observe("pair", s.Valid, start)
	return s
}

// Evaluate runs the test set. observe may be nil.
func (e *Engine) Evaluate(cases []evaluator.TestCase, observe func(evaluator.Outcome)) (evaluator.Result, error) {
	start := time.Now()
	res, err := evaluator.EvaluateFunc(cases, e.table, func(o evaluator.Outcome) {
		if e.metrics != nil {
			e.metrics.QuestionsTotal.WithLabelValues(outcomeLabel(o)).Inc()
		}
		if observe != nil {
			observe(o)
		}
	})
	if err != nil {
		if e.metrics != nil {
			e.metrics.SimilarityQueriesTotal.WithLabelValues("evaluate", "error").Inc()
		}
		return res, err
	}
	e.observe("evaluate", true, start)
	if e.metrics != nil {
		e.metrics.EvaluationAccuracy.Set(res.Accuracy)
	}
	e.logger.Info("evaluation complete",
		"total", res.Total,
		"correct", res.Correct,
		"accuracy", res.Accuracy,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (e *Engine) observe(kind string, matched bool, start time.Time) {
	if e.metrics == nil {
		return
	}
	result := "match"
	if !matched {
		result = "no_match"
	}
	e.metrics.SimilarityQueriesTotal.WithLabelValues(kind, result).Inc()
	e.metrics.SimilarityLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func outcomeLabel(o evaluator.Outcome) string {
	switch {
	case o.Correct:
		return "correct"
	case o.Guess == "":
		return "no_answer"
	default:
		return "wrong"
	}
}

func recordSnapshot(m *metrics.Metrics, op string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SnapshotOpsTotal.WithLabelValues(op, status).Inc()
}
