package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeDuplicateUsername  = "duplicate_username"
	ErrCodeEmptyMessage       = "empty_message"
	ErrCodeUnknownRecipient   = "unknown_recipient"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeInvalidUsername    = "invalid_username"
)

var (
	ErrDuplicateUsername = coreError(ErrCodeDuplicateUsername, "username is already connected")
	ErrEmptyMessage      = coreError(ErrCodeEmptyMessage, "message is empty")
	ErrUnknownRecipient  = coreError(ErrCodeUnknownRecipient, "recipient is not online")
	ErrMissingRecipient  = coreError(ErrCodeBadRequest, "receiver is required")
	ErrInvalidRoomName   = coreError(ErrCodeBadRequest, "room name must be 1-64 characters")
)

// Reasons a session is terminated by the hub rather than by its own transport.
var (
	ErrSuperseded   = errors.New("session superseded by a newer connection")
	ErrSlowConsumer = errors.New("outbound queue overflow")
	ErrHubClosed    = errors.New("hub closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so wrapped copies match sentinels.
func (e *CoreError) Is(target error) bool {
	var other *CoreError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// NewError builds a CoreError for callers outside the package (transport validation).
func NewError(code, msg string) *CoreError {
	return coreError(code, msg)
}
