package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/visiongo/internal/ratelimit"
	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware throttles each API key with its own bucket under scope.
// It runs after APIKeyMiddleware so the key is on the context.
func RateLimitMiddleware(lim ratelimit.Limiter, scope string, bucket ratelimit.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		key := c.GetString("api_key")
		if key == "" {
			key = apiKey(c.GetHeader("Authorization"))
		}
		if key == "" {
			c.Next()
			return
		}

		dec, err := lim.Take(c.Request.Context(), scope, key, bucket, 1)
		if err != nil {
			// Store errors fail open.
			requestLogger(c).Warn("rate limit check failed", "scope", scope, "err", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(bucket.BurstSize))
		if dec.Allowed {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", "0")
		c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(dec.RetryAfter.Seconds())))))
		AbortWithStatus(c, http.StatusTooManyRequests, domain.StatusThrottled, "Making too many requests")
	}
}

// requestLogger is the logger LoggerMiddleware stored, or the default one.
func requestLogger(c *gin.Context) *slog.Logger {
	if l, ok := c.Get("logger"); ok {
		if logger, ok := l.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
