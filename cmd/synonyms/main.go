// Command synonyms builds a descriptor table from the corpus, answers every
// question in the test set and prints the number of questions and the
// percentage answered correctly.
//
// Usage:
//
//	go run ./cmd/synonyms [-config configs/development.yaml] [-corpus a.txt,b.txt] [-test test.txt]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/evaluator"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	corpusFiles := flag.String("corpus", "", "comma-separated corpus files (overrides config)")
	testFile := flag.String("test", "", "test set file (overrides config)")
	snapshotPath := flag.String("snapshot", "", "descriptor snapshot path (overrides config)")
	rebuild := flag.Bool("rebuild", false, "rebuild from the corpus even if a snapshot exists")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusFiles != "" {
		cfg.Corpus.Files = strings.Split(*corpusFiles, ",")
	}
	if *testFile != "" {
		cfg.Evaluation.TestFile = *testFile
	}
	if *snapshotPath != "" {
		cfg.Corpus.SnapshotPath = *snapshotPath
	}
	if *rebuild {
		cfg.Corpus.Rebuild = true
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	if err := run(ctx, cfg, m, os.Stdout); err != nil {
		slog.Error("evaluation run failed", "error", err)
		os.Exit(1)
	}
}

// run builds or loads the table, evaluates the test set and writes the
// report to out. Outcome publishing and run recording are optional and
// never change the report.
func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics, out io.Writer) error {
	started := time.Now()
	runID := analytics.NewRunID()
	log := slog.Default().With("run_id", runID)
	log.Info("starting evaluation run",
		"corpus_files", len(cfg.Corpus.Files),
		"test_file", cfg.Evaluation.TestFile,
	)

	ctx, root := tracing.StartSpan(ctx, "evaluation-run")
	root.SetAttr("run_id", runID)
	defer func() {
		root.End()
		root.Log(log)
	}()

	engine, err := similarity.Open(ctx, cfg.Corpus, m)
	if err != nil {
		root.Fail(err)
		return err
	}
	cases, err := corpus.ReadTestSet(cfg.Evaluation.TestFile)
	if err != nil {
		root.Fail(err)
		return err
	}

	var outcomes *collector.BatchCollector
	if cfg.Evaluation.PublishOutcomes {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.EvaluationOutcomes)
		defer producer.Close()
		breaker := resilience.NewCircuitBreaker("outcome-publisher", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
		})
		outcomes = collector.NewBatchCollector(producer, breaker, cfg.Evaluation.BatchSize, cfg.Evaluation.FlushInterval, m)
		outcomes.Start(ctx)
	}

	_, span := tracing.StartSpan(ctx, "evaluate")
	res, err := engine.Evaluate(cases, func(o evaluator.Outcome) {
		if outcomes != nil {
			outcomes.Track(analytics.NewOutcomeEvent(runID, o, time.Now()))
		}
	})
	span.SetAttr("questions", res.Total)
	span.SetAttr("correct", res.Correct)
	span.End()
	if outcomes != nil {
		outcomes.Close()
	}
	if err != nil {
		root.Fail(err)
		return err
	}

	if err := report(out, res); err != nil {
		return err
	}

	if cfg.Evaluation.RecordRuns {
		rec := analytics.RunRecord{
			RunID:       runID,
			CorpusFiles: cfg.Corpus.Files,
			Vocabulary:  engine.Stats().Words,
			Total:       res.Total,
			Correct:     res.Correct,
			Accuracy:    res.Accuracy,
			DurationMs:  time.Since(started).Milliseconds(),
			StartedAt:   started,
		}
		if err := recordRun(ctx, cfg.Postgres, rec, m); err != nil {
			log.Error("failed to record evaluation run", "error", err)
		}
	}
	return nil
}

func recordRun(ctx context.Context, cfg config.PostgresConfig, rec analytics.RunRecord, m *metrics.Metrics) error {
	_, span := tracing.StartSpan(ctx, "record-run")
	defer span.End()

	db, err := postgres.New(ctx, cfg)
	if err != nil {
		span.Fail(err)
		return err
	}
	defer db.Close()

	store := aggregator.NewStore(db, m)
	if err := store.Migrate(ctx); err != nil {
		span.Fail(err)
		return err
	}
	if err := store.SaveRun(ctx, rec); err != nil {
		span.Fail(err)
		return err
	}
	return nil
}

func report(w io.Writer, res evaluator.Result) error {
	_, err := fmt.Fprintf(w, "Number of questions: %d\nPercent correct: %g\n", res.Total, res.Accuracy)
	return err
}
