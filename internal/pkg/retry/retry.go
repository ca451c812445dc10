package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/courseforge-backend/internal/pkg/httpx"
)

// Options controls the retry-with-exponential-backoff executor.
// Defaults match the callers' expectations across the backend:
// 2 retries with a 1s initial delay that doubles each attempt, so the
// worst case adds roughly 3s of latency on top of the operation itself.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:   2,
		InitialDelay: time.Second,
	}
}

type Option func(*Options)

func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

func WithInitialDelay(d time.Duration) Option {
	return func(o *Options) { o.InitialDelay = d }
}

// Do runs op and retries failures with exponential backoff.
//
// Every failure is retryable except errors that carry a non-retryable
// HTTP status (a non-408/429 4xx): an operation that reached the server
// and was rejected will be rejected again, so retrying only burns the
// budget. Transport-level errors always retry.
//
// Do has no side effects of its own; wrapping a non-idempotent operation
// is only safe when the caller has ensured idempotency independently.
func Do[T any](ctx context.Context, op func() (T, error), opts ...Option) (T, error) {
	o := DefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil {
			var sc httpx.HTTPStatusCoder
			if errors.As(err, &sc) && !httpx.IsRetryableHTTPStatus(sc.HTTPStatusCode()) {
				return v, backoff.Permanent(err)
			}
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(o.MaxRetries)+1))
}
