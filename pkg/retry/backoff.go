package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func ExponentialBackoff(initialInterval, maxInterval time.Duration, multiplier float64) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = multiplier
	// No jitter: the applied delay must equal the one reported on the
	// retry side-channel by CalculateBackoffDuration.
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	return exp
}

// CalculateBackoffDuration mirrors the delay the exponential policy will
// apply before attempt+1, for reporting on the retry side-channel.
func CalculateBackoffDuration(attempt int, initialInterval time.Duration, multiplier float64, maxInterval time.Duration) time.Duration {
	duration := float64(initialInterval) * math.Pow(multiplier, float64(attempt-1))
	if duration > float64(maxInterval) {
		return maxInterval
	}
	return time.Duration(duration)
}
