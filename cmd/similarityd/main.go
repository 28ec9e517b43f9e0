// Command similarityd serves read-only similarity queries over a descriptor
// table built from the configured corpus or loaded from snapshots.
//
// Usage:
//
//	go run ./cmd/similarityd [-config configs/development.yaml]
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
	"time"

	"github.com/joho/godotenv"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service/cache"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service/handler"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/redis"
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
	slog.Info("starting similarity service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	engine, err := similarity.Open(ctx, cfg.Corpus, m)
	if err != nil {
		slog.Error("failed to open descriptor table", "error", err)
		os.Exit(1)
	}
	stats := engine.Stats()
	slog.Info("descriptor table ready", "words", stats.Words, "pairs", stats.Pairs)

	gen := generation(stats.Words, stats.Pairs, stats.TotalCount)
	var answerCache *cache.AnswerCache
	var redisClient *pkgredis.Client
	var localStore *cache.LocalStore
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			answerCache = cache.New(redisClient, cfg.Redis.CacheTTL, gen, m)
			slog.Info("answer cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	if answerCache == nil && cfg.Redis.LocalCacheSize > 0 {
		localStore = cache.NewLocalStore(cfg.Redis.LocalCacheSize, cfg.Redis.CacheTTL)
		answerCache = cache.New(localStore, cfg.Redis.CacheTTL, gen, m)
		slog.Info("in-process answer cache enabled", "size", cfg.Redis.LocalCacheSize, "ttl", cfg.Redis.CacheTTL)
	}

	checker := health.NewChecker()
	checker.Register("descriptor_table", func(ctx context.Context) health.ComponentHealth {
		if stats.Words == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "empty table"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d words", stats.Words)}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			if localStore != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: fmt.Sprintf("in-process cache, %d entries", localStore.Len())}
			}
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "caching disabled"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(engine, answerCache, cfg.Server.MaxChoices, cfg.Server.MaxBodyBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/similar", h.Similar)
	mux.HandleFunc("GET /api/v1/similarity", h.Pair)
	mux.HandleFunc("POST /api/v1/evaluate", h.Evaluate)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Server.RateLimit, time.Minute)
		go limiter.RunCleanup(ctx, 5*time.Minute)
		chain = middleware.RateLimit(limiter, 60)(chain)
	}
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

	slog.Info("similarity service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("similarity service stopped")
}

// generation identifies the table's contents in cache keys, so answers
// cached for a different table are never served.
func generation(words int, pairs, total int64) string {
	return fmt.Sprintf("w%d-p%d-t%d", words, pairs, total)
}
