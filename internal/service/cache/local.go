package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gobwas/glob"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// LocalStore is an in-process Store used when Redis is unreachable. Entries
// share one TTL fixed at construction; misses are reported as redis.Nil so
// AnswerCache treats both stores alike.
type LocalStore struct {
	lru *expirable.LRU[string, string]
}

func NewLocalStore(size int, ttl time.Duration) *LocalStore {
	if size <= 0 {
		size = 10000
	}
	return &LocalStore{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (s *LocalStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.lru.Get(key)
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *LocalStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case string:
		s.lru.Add(key, v)
	case []byte:
		s.lru.Add(key, string(v))
	default:
		return fmt.Errorf("local cache: unsupported value type %T", value)
	}
	return nil
}

// FlushByPattern removes keys matching a Redis-style glob pattern.
func (s *LocalStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("local cache: bad pattern %q: %w", pattern, err)
	}
	var n int64
	for _, key := range s.lru.Keys() {
		if g.Match(key) && s.lru.Remove(key) {
			n++
		}
	}
	return n, nil
}

func (s *LocalStore) Len() int {
	return s.lru.Len()
}
