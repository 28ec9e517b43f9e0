package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

// WithTimeout runs fn with a context that expires after timeout. A deadline
// hit by this call (not by the parent) is reported as ErrTimeout. fn must
// honour its context; WithTimeout does not abandon it.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s exceeded %v: %w (%v)", name, timeout, apperrors.ErrTimeout, err)
	}
	return err
}
