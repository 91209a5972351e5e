package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/metrics"
	"github.com/osvaldoandrade/visiongo/internal/ratelimit"
	"github.com/osvaldoandrade/visiongo/pkg/api"

	"github.com/tidwall/gjson"
)

// RateLimited takes tokens from a shared bucket before every call. A call
// costs one token per input it carries, and at least one.
type RateLimited struct {
	next    api.Transport
	limiter ratelimit.Limiter
	bucket  ratelimit.Bucket
	scope   string
	subject string
	logger  *slog.Logger
}

var _ api.Transport = (*RateLimited)(nil)

// NewRateLimited limits next under scope. subject identifies whose budget is
// spent, normally the API key.
func NewRateLimited(next api.Transport, lim ratelimit.Limiter, bucket ratelimit.Bucket, scope, subject string, logger *slog.Logger) *RateLimited {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimited{next: next, limiter: lim, bucket: bucket, scope: scope, subject: subject, logger: logger}
}

func (r *RateLimited) Do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	if r.limiter != nil && r.bucket.Enabled() {
		cost := Cost(body)
		err := ratelimit.Wait(ctx, r.limiter, r.scope, r.subject, r.bucket, cost, func(d time.Duration) {
			metrics.RateLimitWaitsTotal.Inc()
			r.logger.Debug("rate limited; waiting", "scope", r.scope, "cost", cost, "retry_after_ms", d.Milliseconds())
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Store errors fail open.
			r.logger.Warn("rate limit check failed", "scope", r.scope, "err", err)
		}
	}
	return r.next.Do(ctx, method, url, body)
}

// Cost is the number of tokens a body spends.
func Cost(body []byte) int {
	if len(body) == 0 {
		return 1
	}
	return max(1, int(gjson.GetBytes(body, "inputs.#").Int()))
}
