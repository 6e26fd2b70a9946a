// Package session keeps the registry of short-lived lab session codes.
package session

import (
	"errors"
	"strings"
	"time"
)

// DefaultTTL is how long a session stays joinable after creation.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNotFound is returned by stores for unknown or expired codes.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidCode is returned when a requested code is malformed.
	ErrInvalidCode = errors.New("invalid session code")
	// ErrCodeSpaceExhausted is returned when every generated code collided.
	ErrCodeSpaceExhausted = errors.New("could not allocate a free session code")
)

// Session is an ephemeral, code-identified lab room.
type Session struct {
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New builds a session created at now that lives for ttl.
func New(code string, now time.Time, ttl time.Duration) Session {
	return Session{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// ExpiredAt reports whether the session is no longer valid at t.
// A session is expired from ExpiresAt onward.
func (s Session) ExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// Canonical returns the stored form of a code: trimmed and upper-cased.
func Canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code is a canonical code of the given length.
func ValidCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
