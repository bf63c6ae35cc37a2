package revocation

import (
	"errors"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// ErrInvalidTTL is returned for a non-positive revocation lifetime.
var ErrInvalidTTL = errors.New("ttl must be positive")

// TTLUntil is the remaining lifetime of a token that expires at expiresAt.
// A token already past expiry has nothing left to revoke.
func TTLUntil(expiresAt time.Time, now time.Time) time.Duration {
	return expiresAt.Sub(now)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
