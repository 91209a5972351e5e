// Package poll re-issues a read until the state it returns is terminal.
//
// The service gives no cadence hint, so the default is a fixed interval with a
// caller-chosen bound on attempts. A failed response is an ordinary outcome:
// the loop keeps going unless StopOnFailure is set.
package poll

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/backoff"
	"github.com/osvaldoandrade/visiongo/internal/metrics"
	"github.com/osvaldoandrade/visiongo/pkg/api"

	"github.com/pkg/errors"
)

// ErrAttemptsExhausted is returned when MaxAttempts reads never reached a
// terminal state.
var ErrAttemptsExhausted = errors.New("poll: attempts exhausted before a terminal state")

type Config struct {
	// Operation labels logs and metrics.
	Operation   string
	Interval    time.Duration
	MaxInterval time.Duration
	// MaxAttempts <= 0 polls until ctx ends.
	MaxAttempts   int
	Policy        backoff.Policy
	StopOnFailure bool
	Logger        *slog.Logger
}

func DefaultConfig(operation string) Config {
	return Config{
		Operation:   operation,
		Interval:    time.Second,
		MaxInterval: 30 * time.Second,
		MaxAttempts: 20,
		Policy:      backoff.Fixed,
	}
}

// Until calls fetch until done reports true for a successful response. It
// returns the last response seen, which is the terminal one on success.
func Until[T any](ctx context.Context, cfg Config, fetch func(context.Context) (api.Response[T], error), done func(T) bool) (api.Response[T], error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var last api.Response[T]
	for attempt := 0; cfg.MaxAttempts <= 0 || attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := backoff.Delay(cfg.Policy, cfg.Interval, cfg.MaxInterval, attempt-1, rng)
			if err := sleepOrDone(ctx, wait); err != nil {
				return last, err
			}
		}

		resp, err := fetch(ctx)
		if err != nil {
			metrics.PollAttemptsTotal.WithLabelValues(cfg.Operation, "error").Inc()
			return last, err
		}
		last = resp

		if !resp.IsSuccessful() {
			metrics.PollAttemptsTotal.WithLabelValues(cfg.Operation, "failure").Inc()
			logger.Debug("poll attempt failed", "operation", cfg.Operation, "attempt", attempt+1,
				"code", int(resp.Status().Code), "description", resp.Status().Description)
			if cfg.StopOnFailure {
				return resp, nil
			}
			continue
		}
		if done(resp.Get()) {
			metrics.PollAttemptsTotal.WithLabelValues(cfg.Operation, "done").Inc()
			return resp, nil
		}
		metrics.PollAttemptsTotal.WithLabelValues(cfg.Operation, "pending").Inc()
		logger.Debug("poll attempt pending", "operation", cfg.Operation, "attempt", attempt+1)
	}
	return last, errors.Wrapf(ErrAttemptsExhausted, "%s after %d attempts", cfg.Operation, cfg.MaxAttempts)
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
