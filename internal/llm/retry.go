package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// retryPolicy retries transient provider failures with a fixed delay.
type retryPolicy struct {
	maxRetries int
	delay      time.Duration
	retriable  func(error) (code int, ok bool)
}

func callWithRetries[T any](ctx context.Context, log *slog.Logger, p retryPolicy, call func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		res, err := call(ctx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		code, ok := p.retriable(err)
		if !ok {
			log.ErrorContext(ctx, "Model call failed with non-retriable error", "attempt", attempt+1, "error", err)
			return zero, err
		}
		if attempt >= p.maxRetries {
			log.ErrorContext(ctx, "Model call failed after max retries", "attempts", attempt+1, "code", code, "error", err)
			return zero, fmt.Errorf("gave up after %d attempts (code %d): %w", attempt+1, code, err)
		}

		log.WarnContext(ctx, "Retrying model call", "attempt", attempt+1, "max_retries", p.maxRetries, "code", code, "delay", p.delay)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.delay):
		}
	}
}
