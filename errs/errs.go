// Package errs classifies the failures tokenbook reports to its callers.
package errs

import (
	"errors"
	"strings"
)

// Kind identifies a failure category visible to callers.
type Kind string

const (
	// KindInvalidInput indicates malformed caller input, such as a token
	// with an empty name or symbol.
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound indicates a missing owner record, a missing token
	// symbol, or an upstream that has no data for the requested coin.
	KindNotFound Kind = "not_found"
	// KindUpstream indicates a non-success status or transport failure
	// from an outcall.
	KindUpstream Kind = "upstream_error"
	// KindInternal indicates a storage or encoding fault.
	KindInternal Kind = "internal"
)

var (
	// ErrInvalidInput matches any error of KindInvalidInput with errors.Is
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	// ErrNotFound matches any error of KindNotFound with errors.Is
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrUpstream matches any error of KindUpstream with errors.Is
	ErrUpstream = &Error{Kind: KindUpstream}
	// ErrInternal matches any error of KindInternal with errors.Is
	ErrInternal = &Error{Kind: KindInternal}
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string

	cause error
}

// Option configures an Error.
type Option func(*Error)

// WithCause sets the underlying cause.
func WithCause(err error) Option {
	return func(e *Error) {
		e.cause = err
	}
}

// New constructs an error of the given kind.
func New(kind Kind, message string, opts ...Option) *Error {
	e := &Error{Kind: kind, Message: strings.TrimSpace(message)}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// InvalidInput constructs an error of KindInvalidInput
func InvalidInput(message string, opts ...Option) *Error {
	return New(KindInvalidInput, message, opts...)
}

// NotFound constructs an error of KindNotFound
func NotFound(message string, opts ...Option) *Error {
	return New(KindNotFound, message, opts...)
}

// Upstream constructs an error of KindUpstream
func Upstream(message string, opts ...Option) *Error {
	return New(KindUpstream, message, opts...)
}

// Internal constructs an error of KindInternal
func Internal(message string, opts ...Option) *Error {
	return New(KindInternal, message, opts...)
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	message := e.Message

	if message == "" {
		message = string(e.Kind)
	}

	if e.cause != nil {
		return message + ": " + e.cause.Error()
	}

	return message
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	if !ok {
		return false
	}

	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error

	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// Message returns the caller-facing message for err without the
// cause chain. Unclassified errors yield a generic message.
func Message(err error) string {
	var e *Error

	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return "internal error"
}
