package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNotInRoom   = "not_in_room"
	ErrCodeBadRequest  = "bad_request"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeInternal    = "internal_error"
)

var (
	ErrUnknownClient   = errors.New("unknown client")
	ErrDuplicateClient = errors.New("client already registered")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
