// Package collector buffers outcome events in memory and publishes them to
// Kafka in batches.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/resilience"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// BatchCollector flushes when the buffer reaches batchSize or every
// flushInterval, whichever comes first. Failed batches are requeued up to
// three batches' worth; while the breaker is open batches are dropped.
type BatchCollector struct {
	publisher     Publisher
	breaker       *resilience.CircuitBreaker
	metrics       *metrics.Metrics
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	mu     sync.Mutex
	buffer []kafka.Event

	flushMu sync.Mutex
	kick    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewBatchCollector(publisher Publisher, breaker *resilience.CircuitBreaker, batchSize int, flushInterval time.Duration, m *metrics.Metrics) *BatchCollector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("outcome-publisher", resilience.CircuitBreakerConfig{})
	}
	return &BatchCollector{
		publisher:     publisher,
		breaker:       breaker,
		metrics:       m,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "batch-collector"),
		buffer:        make([]kafka.Event, 0, batchSize),
		kick:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the flush loop. It runs until ctx is cancelled or Close is
// called, then makes a final flush.
func (bc *BatchCollector) Start(ctx context.Context) {
	go func() {
		defer close(bc.done)
		ticker := time.NewTicker(bc.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bc.flush(ctx)
			case <-bc.kick:
				bc.flush(ctx)
			case <-ctx.Done():
				bc.finalFlush()
				return
			case <-bc.stop:
				bc.finalFlush()
				return
			}
		}
	}()
	bc.logger.Info("batch collector started", "batch_size", bc.batchSize, "flush_interval", bc.flushInterval)
}

// Track buffers one event keyed by run ID. It never blocks on Kafka.
func (bc *BatchCollector) Track(event analytics.OutcomeEvent) {
	bc.mu.Lock()
	bc.buffer = append(bc.buffer, kafka.Event{Key: event.RunID, Value: event})
	full := len(bc.buffer) >= bc.batchSize
	bc.mu.Unlock()

	if full {
		select {
		case bc.kick <- struct{}{}:
		default:
		}
	}
}

// Close stops the loop and waits for the final flush.
func (bc *BatchCollector) Close() {
	bc.once.Do(func() { close(bc.stop) })
	<-bc.done
}

func (bc *BatchCollector) BufferLen() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.buffer)
}

func (bc *BatchCollector) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bc.flush(ctx)
	if n := bc.BufferLen(); n > 0 {
		bc.logger.Warn("events left unpublished at shutdown", "count", n)
		bc.count("dropped", n)
	}
}

func (bc *BatchCollector) flush(ctx context.Context) {
	bc.flushMu.Lock()
	defer bc.flushMu.Unlock()

	bc.mu.Lock()
	if len(bc.buffer) == 0 {
		bc.mu.Unlock()
		return
	}
	batch := bc.buffer
	bc.buffer = make([]kafka.Event, 0, bc.batchSize)
	bc.mu.Unlock()

	err := bc.breaker.Execute(func() error {
		return bc.publisher.PublishBatch(ctx, batch)
	})
	if err == nil {
		bc.count("published", len(batch))
		bc.logger.Debug("batch flushed", "events", len(batch))
		return
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		bc.count("dropped", len(batch))
		bc.logger.Warn("publisher unavailable, batch dropped", "events", len(batch), "error", err)
		return
	}

	bc.logger.Error("batch flush failed", "events", len(batch), "error", err)
	bc.mu.Lock()
	bc.buffer = append(batch, bc.buffer...)
	limit := bc.batchSize * 3
	dropped := 0
	if len(bc.buffer) > limit {
		dropped = len(bc.buffer) - limit
		bc.buffer = bc.buffer[dropped:]
	}
	bc.mu.Unlock()
	bc.count("requeued", len(batch)-dropped)
	if dropped > 0 {
		bc.count("dropped", dropped)
		bc.logger.Warn("buffer overflow, oldest events dropped", "dropped", dropped)
	}
}

func (bc *BatchCollector) count(status string, n int) {
	if bc.metrics != nil && n > 0 {
		bc.metrics.OutcomeEventsTotal.WithLabelValues(status).Add(float64(n))
	}
}
