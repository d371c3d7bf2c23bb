package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrProviderNotFound is returned when an id resolves to nothing in the
	// registry.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrRateLimitExceeded is returned by WaitForSlot when no budget became
	// available before the wait deadline.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrTranslationUnsupported is returned when a provider has no native
	// translation capability.
	ErrTranslationUnsupported = errors.New("provider does not support translation")

	// ErrInvalidConfig marks configuration rejected before request time.
	ErrInvalidConfig = errors.New("invalid provider configuration")
)

// Error codes.
const (
	ErrCodeConfig    = "CONFIG_ERROR"
	ErrCodeAuth      = "AUTH_ERROR"
	ErrCodeNetwork   = "NETWORK_ERROR"
	ErrCodeTimeout   = "TIMEOUT_ERROR"
	ErrCodeRateLimit = "RATE_LIMIT_ERROR"
	ErrCodeServer    = "SERVER_ERROR"
	ErrCodeBadInput  = "BAD_REQUEST_ERROR"
	ErrCodeUnknown   = "UNKNOWN_ERROR"
)

// Error is a typed provider error with an explicit retryability flag.
type Error struct {
	Code    string
	Message string
	Cause   error
	Retry   bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the call may be retried on the same provider.
func (e *Error) IsRetryable() bool {
	return e.Retry
}

// NewError creates a non-retryable provider error.
func NewError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewRetryableError creates a retryable provider error.
func NewRetryableError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Retry: true}
}

// IsRetryable classifies an arbitrary error. Typed errors answer for
// themselves; everything else is classified by well-known transient error
// patterns, the same way transient network failures surface from HTTP
// clients in practice.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retry
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"temporary failure",
		"rate limit",
		"too many requests",
		"429",
		"500",
		"502",
		"503",
		"504",
		"broken pipe",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// ErrorFromStatusCode maps an HTTP status to a typed provider error.
func ErrorFromStatusCode(status int, body string) *Error {
	switch {
	case status == 401 || status == 403:
		return NewError(ErrCodeAuth, "authentication failed", nil)
	case status == 429:
		return NewRetryableError(ErrCodeRateLimit, "too many requests", nil)
	case status >= 500:
		return NewRetryableError(ErrCodeServer, fmt.Sprintf("server error: %d", status), nil)
	case status >= 400:
		msg := fmt.Sprintf("bad request: %d", status)
		if body != "" {
			msg = fmt.Sprintf("bad request: %d: %s", status, body)
		}
		return NewError(ErrCodeBadInput, msg, nil)
	default:
		return NewError(ErrCodeUnknown, fmt.Sprintf("unexpected status: %d", status), nil)
	}
}
