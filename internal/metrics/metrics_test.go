package metrics

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

func TestBucketCollectorReportsTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mr.HSet("visiongo:rl:predict", "tokens", "7.5", "ts", "1")

	reg := prometheus.NewRegistry()
	reg.MustRegister(newBucketCollector(rdb, func() []string {
		return []string{"visiongo:rl:predict", "visiongo:rl:missing"}
	}, nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("families = %d, want 1", len(families))
	}
	if got := families[0].GetName(); got != "visiongo_ratelimit_tokens" {
		t.Fatalf("name = %q", got)
	}
	metrics := families[0].GetMetric()
	if len(metrics) != 1 {
		t.Fatalf("metrics = %d, want 1 (missing bucket must be skipped)", len(metrics))
	}
	if got := metrics[0].GetGauge().GetValue(); got != 7.5 {
		t.Errorf("tokens = %v, want 7.5", got)
	}
	if got := metrics[0].GetLabel()[0].GetValue(); got != "visiongo:rl:predict" {
		t.Errorf("bucket label = %q", got)
	}
}

func TestBucketCollectorWithoutRedis(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(newBucketCollector(nil, nil, nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 0 {
		t.Errorf("families = %d, want 0", len(families))
	}
}
