package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

var errFlaky = errors.New("flaky")

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "insert", fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "insert", fastRetry(2), func(context.Context) error {
		calls++
		return errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Errorf("error = %v, want wrapped errFlaky", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "insert", fastRetry(5), func(context.Context) error {
		calls++
		return Permanent(errFlaky)
	})
	if err != errFlaky {
		t.Errorf("error = %v, want errFlaky unwrapped", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour}
	err := Retry(ctx, "insert", cfg, func(context.Context) error {
		cancel()
		return errFlaky
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("kafka", CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	cb.now = func() time.Time { return now }

	fail := func() error { return errFlaky }
	ok := func() error { return nil }

	cb.Execute(fail)
	if cb.State() != StateClosed {
		t.Fatalf("state after 1 failure = %s", cb.State())
	}
	cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("state after 2 failures = %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open circuit ran fn (err=%v called=%v)", err, called)
	}

	now = now.Add(time.Minute)
	if err := cb.Execute(fail); !errors.Is(err, errFlaky) {
		t.Fatalf("probe error = %v", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("failed probe should reopen, state = %s", cb.State())
	}

	now = now.Add(time.Minute)
	if err := cb.Execute(ok); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("successful probe should close, state = %s", cb.State())
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "insert", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}

	parent, cancel := context.WithCancel(context.Background())
	cancel()
	err = WithTimeout(parent, time.Second, "insert", func(ctx context.Context) error {
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) || errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("parent cancellation = %v, want context.Canceled only", err)
	}

	if err := WithTimeout(context.Background(), 0, "insert", func(context.Context) error { return nil }); err != nil {
		t.Errorf("zero timeout error = %v", err)
	}
}
