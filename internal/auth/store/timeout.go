package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout bounds ctx by d. A non-positive d leaves ctx as is.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// MapUnavailable wraps deadline and cancellation failures in ErrUnavailable
// so callers can tell them apart from data errors.
func MapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
