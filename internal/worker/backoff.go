package worker

import (
	"math"
	"time"
)

// BackoffFunc computes the delay before the next retry of a job that has
// failed the given number of attempts. It must be deterministic and
// non-decreasing in attempts.
type BackoffFunc func(attempts int) time.Duration

// ExponentialBackoff returns base * 2^(attempts-1), capped. The first retry
// waits base, the second 2*base, and so on.
func ExponentialBackoff(base, cap time.Duration) BackoffFunc {
	return func(attempts int) time.Duration {
		if attempts < 1 {
			attempts = 1
		}

		delay := float64(base) * math.Pow(2, float64(attempts-1))
		if delay > float64(cap) {
			return cap
		}
		return time.Duration(delay)
	}
}
