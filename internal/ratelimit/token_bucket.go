package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// takeScript refills the bucket for the time elapsed since its last take and
// then tries to remove the cost. The state hash holds "tokens" and "ts" (ms).
//
// KEYS[1] bucket key
// ARGV    refill rate per ms, capacity, now ms, state ttl ms, cost
// returns {allowed, retry after ms, tokens left rounded down}
var takeScript = redis.NewScript(`
local per_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[5])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local last = tonumber(state[2]) or now
if last > now then last = now end

tokens = math.min(capacity, tokens + (now - last) * per_ms)

local allowed = 0
local wait_ms = 0
if tokens >= cost then
  allowed = 1
  tokens = tokens - cost
elseif per_ms > 0 then
  wait_ms = math.max(1, math.ceil((cost - tokens) / per_ms))
else
  wait_ms = 60000
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], tonumber(ARGV[4]))
return {allowed, wait_ms, math.floor(tokens)}
`)

// TokenBucketLimiter keeps bucket state in Redis so every process using the
// same API key draws from one quota.
type TokenBucketLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewTokenBucketLimiter(rdb *redis.Client) *TokenBucketLimiter {
	return &TokenBucketLimiter{rdb: rdb, now: time.Now}
}

// Take always allows when the limiter has no Redis client or the bucket is
// disabled.
func (l *TokenBucketLimiter) Take(ctx context.Context, scope string, subject string, bucket Bucket, cost int) (Decision, error) {
	if l == nil || l.rdb == nil || !bucket.Enabled() {
		return Decision{Allowed: true}, nil
	}

	args := []interface{}{
		bucket.perSecond() / 1000,
		bucket.BurstSize,
		l.now().UTC().UnixMilli(),
		bucket.stateTTL().Milliseconds(),
		bucket.clamp(cost),
	}
	res, err := takeScript.Run(ctx, l.rdb, []string{Key(scope, subject)}, args...).Int64Slice()
	if err != nil {
		return Decision{}, errors.Wrap(err, "ratelimit take")
	}
	if len(res) != 3 {
		return Decision{}, errors.Errorf("ratelimit take: unexpected reply %v", res)
	}

	dec := Decision{Allowed: res[0] == 1, Remaining: int(res[2])}
	if !dec.Allowed {
		dec.RetryAfter = time.Duration(max(res[1], 1)) * time.Millisecond
	}
	return dec, nil
}
