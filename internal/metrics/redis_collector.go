package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// bucketCollector reports the token level of the shared rate limiter buckets.
// Keys are read directly so every process sharing the bucket sees the same value.
type bucketCollector struct {
	rdb    *redis.Client
	keys   func() []string
	logger *slog.Logger

	tokensDesc *prometheus.Desc
}

func newBucketCollector(rdb *redis.Client, keys func() []string, logger *slog.Logger) *bucketCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &bucketCollector{
		rdb:    rdb,
		keys:   keys,
		logger: logger,
		tokensDesc: prometheus.NewDesc(
			"visiongo_ratelimit_tokens",
			"Tokens currently available in a client-side rate limiter bucket.",
			[]string{"bucket"},
			nil,
		),
	}
}

func (c *bucketCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tokensDesc
}

func (c *bucketCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil || c.keys == nil {
		return
	}
	keys := c.keys()
	if len(keys) == 0 {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGet(ctx, key, "tokens")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("prometheus bucket collector failed", "err", err)
		return
	}

	for i, key := range keys {
		raw, err := cmds[i].Result()
		if err != nil {
			continue
		}
		tokens, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		emitGauge(ch, c.tokensDesc, tokens, key)
	}
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerBucketCollectorOnce sync.Once

// RegisterBucketCollector exposes the token level of the buckets returned by keys.
func RegisterBucketCollector(rdb *redis.Client, keys func() []string, logger *slog.Logger) {
	registerBucketCollectorOnce.Do(func() {
		prometheus.MustRegister(newBucketCollector(rdb, keys, logger))
	})
}
