package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrUpstream is matched by every *ProviderError via errors.Is.
var ErrUpstream = errors.New("upstream provider error")

// ProviderError describes a failed backend call: a non-2xx status, a
// transport failure or timeout, or a response without usable text.
type ProviderError struct {
	Provider   string // provider identifier, e.g. "openai"
	StatusCode int    // HTTP status returned by the backend, 0 when none was received
	Message    string // human-readable description
	Err        error  // underlying cause, may be nil
}

// NewProviderError builds a ProviderError for provider wrapping err.
func NewProviderError(provider string, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUpstream) hold for every ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrUpstream
}

// Timeout reports whether the call failed because a deadline expired.
func (e *ProviderError) Timeout() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
