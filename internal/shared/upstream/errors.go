// Package upstream defines the error taxonomy shared by every client that talks to
// an external API (brokerage, vision model).
//
// Each kind is a sentinel; callers check kinds with errors.Is and pull the
// upstream code out with errors.As on *Error.
package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrCredential is returned when a brokerage credential could not be issued.
	ErrCredential = errors.New("credential refresh failed")

	// ErrUpstreamTimeout is returned when the brokerage did not answer in time. Retryable.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamRejected is returned when the brokerage answered with a non-success result code.
	ErrUpstreamRejected = errors.New("upstream rejected request")

	// ErrMalformedUpstreamData is returned when a response does not match the expected shape
	// or a numeric field fails to parse.
	ErrMalformedUpstreamData = errors.New("malformed upstream data")

	// ErrModelUnavailable is returned on transport failures or timeouts towards the model. Retryable.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrModelError is returned when the model endpoint answered with a non-success status.
	ErrModelError = errors.New("model error")

	// ErrTruncatedResponse marks a completion cut by the output length bound.
	ErrTruncatedResponse = errors.New("truncated model response")

	// ErrFilteredResponse is returned when the completion was withheld by content filtering.
	ErrFilteredResponse = errors.New("filtered model response")
)

// Error carries the upstream detail of a failure alongside its kind.
type Error struct {
	Kind    error  // one of the sentinels above
	Op      string // operation that failed, e.g. "kis.inquire-price"
	Code    string // upstream code (msg_cd, HTTP status, finish reason)
	Message string // upstream message text
	Err     error  // underlying cause, may be nil
}

// New builds an *Error of the given kind.
func New(kind error, op, code, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Code: code, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether err is a transient transport failure.
// Rejections, model errors and filtered responses are never retried.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, ErrModelUnavailable)
}

// CodeOf returns the upstream code carried by err, or "".
func CodeOf(err error) string {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ""
}
