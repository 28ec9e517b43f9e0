// Package cache stores most-similar answers in Redis. Concurrent misses for
// the same question collapse into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "similar:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type AnswerCache struct {
	store      Store
	ttl        time.Duration
	generation string
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

// New creates a cache. generation identifies the descriptor table answers
// were computed from; answers cached under another generation are never
// returned. m may be nil.
func New(store Store, ttl time.Duration, generation string, m *metrics.Metrics) *AnswerCache {
	return &AnswerCache{
		store:      store,
		ttl:        ttl,
		generation: generation,
		metrics:    m,
		logger:     slog.Default().With("component", "answer-cache"),
	}
}

func (c *AnswerCache) Get(ctx context.Context, word string, choices []string) (*service.Answer, bool) {
	key := c.buildKey(word, choices)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var answer service.Answer
	if err := json.Unmarshal([]byte(data), &answer); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "word", word, "key", key)
	return &answer, true
}

func (c *AnswerCache) Set(ctx context.Context, word string, choices []string, answer *service.Answer) {
	key := c.buildKey(word, choices)
	data, err := json.Marshal(answer)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached answer or computes, stores and returns
// it. The bool reports a cache hit.
func (c *AnswerCache) GetOrCompute(
	ctx context.Context,
	word string,
	choices []string,
	computeFn func() (*service.Answer, error),
) (*service.Answer, bool, error) {
	if answer, ok := c.Get(ctx, word, choices); ok {
		return answer, true, nil
	}
	key := c.buildKey(word, choices)
	val, err, _ := c.group.Do(key, func() (any, error) {
		answer, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, word, choices, answer)
		return answer, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*service.Answer), false, nil
}

func (c *AnswerCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *AnswerCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *AnswerCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *AnswerCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey keeps choice order: ties resolve to the earliest choice, so
// permutations of the same choices are different questions.
func (c *AnswerCache) buildKey(word string, choices []string) string {
	raw := c.generation + "|" + word + "|" + strings.Join(choices, ",")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
