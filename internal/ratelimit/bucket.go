// Package ratelimit shares API quota between processes through Redis token
// buckets. A bucket is named by a scope and a subject, the subject being the
// API key it throttles.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"time"
)

const keyPrefix = "visiongo:rl:"

// Bucket is a token bucket shared by every client using the same key.
type Bucket struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

func (b Bucket) Enabled() bool {
	return b.RequestsPerMinute > 0 && b.BurstSize > 0
}

// perSecond is the refill rate in tokens per second.
func (b Bucket) perSecond() float64 {
	return float64(b.RequestsPerMinute) / 60
}

// clamp keeps a cost within [1, BurstSize], so a batch wider than the burst
// still passes once the bucket is full.
func (b Bucket) clamp(cost int) int {
	return min(max(cost, 1), b.BurstSize)
}

// stateTTL is how long idle bucket state survives in Redis: two full refills
// plus slack, between 30s and an hour. Invalid buckets get two minutes.
func (b Bucket) stateTTL() time.Duration {
	rate, capacity := b.perSecond(), float64(b.BurstSize)
	if rate <= 0 || capacity <= 0 {
		return 2 * time.Minute
	}
	ttl := time.Duration(math.Ceil(2*capacity/rate))*time.Second + 5*time.Second
	return min(max(ttl, 30*time.Second), time.Hour)
}

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	// Remaining is the whole number of tokens left after this take.
	Remaining int
}

// Limiter takes cost tokens from the bucket of scope and subject.
type Limiter interface {
	Take(ctx context.Context, scope string, subject string, bucket Bucket, cost int) (Decision, error)
}

// Key is the Redis key holding the bucket of scope and subject. The subject
// is hashed so API keys never reach Redis.
func Key(scope, subject string) string {
	if scope = strings.TrimSpace(scope); scope == "" {
		scope = "default"
	}
	if subject = strings.TrimSpace(subject); subject == "" {
		subject = "unknown"
	}
	sum := sha256.Sum256([]byte(subject))
	return keyPrefix + scope + ":" + hex.EncodeToString(sum[:])
}

// Wait blocks until cost tokens are granted or ctx ends. onWait runs before
// every sleep and may be nil.
func Wait(ctx context.Context, lim Limiter, scope, subject string, bucket Bucket, cost int, onWait func(time.Duration)) error {
	for {
		dec, err := lim.Take(ctx, scope, subject, bucket, cost)
		if err != nil {
			return err
		}
		if dec.Allowed {
			return nil
		}
		if onWait != nil {
			onWait(dec.RetryAfter)
		}
		t := time.NewTimer(dec.RetryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
