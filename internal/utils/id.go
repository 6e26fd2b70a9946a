package utils

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID returns a random connection identifier.
func NewID() string {
	return uuid.NewString()
}

// NewMessageID returns a lexically sortable message identifier.
func NewMessageID() string {
	return ulid.Make().String()
}
