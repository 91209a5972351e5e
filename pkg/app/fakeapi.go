package app

import (
	"github.com/osvaldoandrade/visiongo/internal/fakeapi"
	"github.com/osvaldoandrade/visiongo/internal/providers"
	"github.com/osvaldoandrade/visiongo/internal/ratelimit"
	"github.com/osvaldoandrade/visiongo/pkg/config"

	"github.com/go-redis/redis/v8"
)

// NewFakeAPI builds the local stand-in service from cfg.FakeAPI. Its rate
// limit, when set, needs rdb or cfg.RedisAddr.
func NewFakeAPI(cfg *config.Config, rdb *redis.Client) *fakeapi.Server {
	logger, _ := NewLogger(cfg, nil)

	var lim ratelimit.Limiter
	if cfg.FakeAPI.RateLimit.Enabled() {
		if rdb == nil && cfg.RedisAddr != "" {
			rdb = providers.NewRedisClient(cfg.RedisOptions())
		}
		if rdb != nil {
			lim = ratelimit.NewTokenBucketLimiter(rdb)
		}
	}

	return fakeapi.New(fakeapi.Options{
		APIKeys:       cfg.FakeAPI.APIKeys,
		Limiter:       lim,
		Bucket:        cfg.FakeAPI.RateLimit,
		Logger:        logger.With("component", "fakeapi"),
		TrainingReads: cfg.FakeAPI.TrainingReads,
	})
}
