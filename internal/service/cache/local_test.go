package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service"
	pkgredis "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/redis"
)

func TestLocalStoreMissLooksLikeRedis(t *testing.T) {
	s := NewLocalStore(4, time.Minute)
	_, err := s.Get(context.Background(), "absent")
	if !pkgredis.IsNilError(err) {
		t.Fatalf("miss error = %v, want redis.Nil", err)
	}
}

func TestLocalStoreBacksAnswerCache(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(16, time.Minute)
	c := New(s, time.Minute, "g1", nil)

	calls := 0
	compute := func() (*service.Answer, error) {
		calls++
		return &service.Answer{Word: "good", Best: "great"}, nil
	}
	if _, hit, err := c.GetOrCompute(ctx, "good", []string{"great", "bad"}, compute); err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	answer, hit, err := c.GetOrCompute(ctx, "good", []string{"great", "bad"}, compute)
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if answer.Best != "great" || calls != 1 {
		t.Errorf("best=%q calls=%d", answer.Best, calls)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("Len after invalidate = %d", s.Len())
	}
}

func TestLocalStoreFlushMatchesPattern(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(16, time.Minute)
	s.Set(ctx, "similar:a", "1", 0)
	s.Set(ctx, "similar:b", []byte("2"), 0)
	s.Set(ctx, "other:c", "3", 0)

	n, err := s.FlushByPattern(ctx, "similar:*")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("flushed %d, want 2", n)
	}
	if v, err := s.Get(ctx, "other:c"); err != nil || v != "3" {
		t.Errorf("other:c = %q, %v", v, err)
	}
}

func TestLocalStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(2, time.Minute)
	s.Set(ctx, "a", "1", 0)
	s.Set(ctx, "b", "2", 0)
	s.Set(ctx, "c", "3", 0)

	if _, err := s.Get(ctx, "a"); !pkgredis.IsNilError(err) {
		t.Errorf("a should have been evicted, err = %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestLocalStoreRejectsOtherValues(t *testing.T) {
	s := NewLocalStore(2, time.Minute)
	if err := s.Set(context.Background(), "k", 42, 0); err == nil {
		t.Error("expected error for int value")
	}
}
