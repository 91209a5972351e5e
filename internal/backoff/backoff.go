package backoff

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Policy names how the delay grows between attempts.
type Policy string

const (
	Fixed          Policy = "fixed"
	Linear         Policy = "linear"
	Exponential    Policy = "exponential"
	ExpEqualJitter Policy = "exp_equal_jitter"
	ExpFullJitter  Policy = "exp_full_jitter"
)

func (p Policy) MarshalText() ([]byte, error) { return []byte(string(p)), nil }

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Fixed, nil
	case Fixed, Linear, Exponential, ExpEqualJitter, ExpFullJitter:
		return p, nil
	default:
		return "", fmt.Errorf("unknown backoff policy %q", s)
	}
}

// Delay returns the wait before the next attempt. attempt counts the attempts
// already made and is expected to be >= 0.
func Delay(policy Policy, base, limit time.Duration, attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		base = time.Second
	}
	if limit <= 0 {
		limit = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	switch policy {
	case Fixed, "":
		return min(base, limit)
	case Linear:
		return min(base*time.Duration(max(1, attempt)), limit)
	case Exponential:
		return exponential(base, limit, attempt)
	case ExpEqualJitter:
		maxDelay := exponential(base, limit, attempt)
		half := maxDelay / 2
		return half + time.Duration(rng.Int63n(int64(half)+1))
	default: // exp_full_jitter
		maxDelay := exponential(base, limit, attempt)
		if maxDelay <= 0 {
			return 0
		}
		return time.Duration(rng.Int63n(int64(maxDelay) + 1))
	}
}

func exponential(base, limit time.Duration, attempt int) time.Duration {
	d := float64(base) * math.Pow(2, float64(attempt))
	if d >= float64(limit) {
		return limit
	}
	return time.Duration(d)
}
