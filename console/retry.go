package console

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/warp/flight-engine/flight"
	"github.com/warp/flight-engine/logger"
)

const (
	retryInitialInterval = 10 * time.Millisecond
	retryMaxInterval     = 250 * time.Millisecond
)

// retry runs op up to attempts times while it fails with a retryable
// error. Any other error is returned at once.
func retry[T any](ctx context.Context, attempts int, log logger.Logger, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval

	try := 0
	return backoff.Retry(ctx, func() (T, error) {
		try++
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !flight.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		log.Warn("retrying after serialization failure",
			logger.F("attempt", try),
			logger.F("error", err),
		)
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(attempts)))
}
