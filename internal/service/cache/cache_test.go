package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service"
)

// memStore is an in-memory Store that reports misses the way Redis does.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
	fail error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	}
	return nil
}

func (s *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func TestGetOrCompute(t *testing.T) {
	c := New(newMemStore(), time.Minute, "gen-1", nil)
	ctx := context.Background()
	calls := 0
	compute := func() (*service.Answer, error) {
		calls++
		return &service.Answer{Word: "good", Best: "great"}, nil
	}

	a, hit, err := c.GetOrCompute(ctx, "good", []string{"bad", "great"}, compute)
	if err != nil || hit || a.Best != "great" {
		t.Fatalf("first call: answer=%+v hit=%v err=%v", a, hit, err)
	}
	a, hit, err = c.GetOrCompute(ctx, "good", []string{"bad", "great"}, compute)
	if err != nil || !hit || a.Best != "great" {
		t.Fatalf("second call: answer=%+v hit=%v err=%v", a, hit, err)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestChoiceOrderIsPartOfKey(t *testing.T) {
	c := New(newMemStore(), time.Minute, "gen-1", nil)
	if c.buildKey("good", []string{"nice", "great"}) == c.buildKey("good", []string{"great", "nice"}) {
		t.Error("permuted choices must map to different keys")
	}
	other := New(newMemStore(), time.Minute, "gen-2", nil)
	if c.buildKey("good", []string{"nice"}) == other.buildKey("good", []string{"nice"}) {
		t.Error("different table generations must map to different keys")
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "gen-1", nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "good", []string{"bad"}, func() (*service.Answer, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected compute error, got %v", err)
	}
	if len(store.data) != 0 {
		t.Errorf("failed computation must not be cached: %v", store.data)
	}
}

func TestStoreFailureIsMiss(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("connection refused")
	c := New(store, time.Minute, "gen-1", nil)
	if _, ok := c.Get(context.Background(), "good", []string{"bad"}); ok {
		t.Error("store failure must be a miss")
	}
}

func TestConcurrentMissesCollapse(t *testing.T) {
	c := New(newMemStore(), time.Minute, "gen-1", nil)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*service.Answer, error) {
		calls.Add(1)
		<-release
		return &service.Answer{Best: "great"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.GetOrCompute(context.Background(), "good", []string{"great"}, compute); err != nil {
				t.Errorf("GetOrCompute: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n < 1 || n > 8 {
		t.Errorf("compute calls = %d", n)
	}
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "gen-1", nil)
	c.Set(context.Background(), "good", []string{"great"}, &service.Answer{Best: "great"})
	store.data["unrelated"] = "x"
	if err := c.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if len(store.data) != 1 {
		t.Errorf("only cache keys should be deleted, left %v", store.data)
	}
}
