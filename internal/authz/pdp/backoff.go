package pdp

import (
	"math"
	"math/rand"
	"time"
)

// backoff returns the wait before the next attempt: exponential in the
// number of failures, capped at maxInterval, with +/-25% jitter, never below base.
func backoff(baseInterval, maxInterval time.Duration, consecutiveFailures int) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	multiplier := math.Pow(2, float64(consecutiveFailures-1))
	interval := time.Duration(float64(baseInterval) * multiplier)

	if interval > maxInterval {
		interval = maxInterval
	}

	jitter := time.Duration(float64(interval) * 0.25 * (rand.Float64()*2 - 1))
	interval += jitter

	if interval < baseInterval {
		interval = baseInterval
	}

	return interval
}
