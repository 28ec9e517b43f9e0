// Command outcomes consumes evaluation outcome events from Kafka, aggregates
// them in memory and serves the aggregate and the recorded run history.
//
// Usage:
//
//	go run ./cmd/outcomes [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
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

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting outcome aggregator", "port", cfg.Server.Port, "topic", cfg.Kafka.Topics.EvaluationOutcomes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	agg := analytics.NewAggregator(m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.EvaluationOutcomes, analytics.HandleEvent(agg))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil {
			slog.Error("outcome consumer error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		st := consumer.Stats()
		if st.Errors > 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: fmt.Sprintf("%d fetch errors, lag %d", st.Errors, st.Lag)}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("lag %d", st.Lag)}
	})

	var runs analytics.RunLister
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, run history disabled", "error", err)
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "run history disabled"}
		})
	} else {
		defer db.Close()
		store := aggregator.NewStore(db, m)
		if err := store.Migrate(ctx); err != nil {
			slog.Warn("run store migration failed", "error", err)
		}
		runs = store
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := db.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	h := analytics.NewHandler(agg, runs)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/outcomes", h.Outcomes)
	mux.HandleFunc("GET /api/v1/runs", h.Runs)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("outcome aggregator listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-consumerDone
	slog.Info("outcome aggregator stopped")
}
