package credential

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no credential record exists for the user.
	ErrNotFound = errors.New("credential record not found")
	// ErrTokenMismatch is returned by Rotate when the presented token does not
	// match the stored current value.
	ErrTokenMismatch = errors.New("refresh token mismatch")
	// ErrUnavailable wraps every infrastructure failure, including context
	// cancellation and timeouts.
	ErrUnavailable = errors.New("credential store unavailable")
)

// Record is the stored credential state for one user: the single refresh token
// currently considered valid.
type Record struct {
	UserID       string
	RefreshToken string
}

// Store persists one current refresh token per user with read-your-writes
// consistency. Implementations must apply Put and Rotate with per-user
// atomicity: no partial write is ever visible to a concurrent reader, and a
// lost update is not acceptable.
type Store interface {
	// Get returns the current record for userID, or ErrNotFound.
	Get(ctx context.Context, userID string) (Record, error)
	// Put upserts the refresh token for userID, overwriting any prior value.
	Put(ctx context.Context, userID, refreshToken string, ttl time.Duration) error
	// Rotate atomically replaces the stored token with next if and only if the
	// stored value byte-exactly equals presented. Returns ErrNotFound when no
	// record exists and ErrTokenMismatch when the compare fails.
	Rotate(ctx context.Context, userID, presented, next string, ttl time.Duration) error
}
