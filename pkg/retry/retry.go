package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Policy is a bounded fixed-delay retry policy shared by the request
// gateway and the scheduler restart path.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn up to p.Attempts times, sleeping p.Delay between failures.
// retryable decides whether a failure is worth another attempt; a nil
// classifier retries everything. The last error is returned once the
// budget is exhausted.
func (p Policy) Do(ctx context.Context, name string, fn func() error, retryable func(error) bool) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	return errors.Wrapf(lastErr, "retry budget exhausted on %s", name)
}
