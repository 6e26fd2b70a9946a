package session

import (
	"context"
	"time"
)

// Store persists sessions. Implementations must be safe for concurrent use
// and must treat a session as absent once it has expired, whether or not
// DeleteExpired has run.
type Store interface {
	// Insert stores s unless a valid session with the same code exists.
	// It reports whether s was stored. An expired record with the same
	// code is replaced.
	Insert(ctx context.Context, s Session) (bool, error)

	// Get returns the valid session for code at now, or ErrNotFound.
	Get(ctx context.Context, code string, now time.Time) (Session, error)

	// DeleteExpired removes sessions expired at now and returns how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}
