package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Handlers map kinds to HTTP statuses.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindPaymentRequired  Kind = "payment_required"
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindTooEarly         Kind = "too_early"
	KindAlreadyFinalized Kind = "already_finalized"
	KindRateLimited      Kind = "rate_limited"
	KindUpstreamFailure  Kind = "upstream_failure"
)

// Error is the error type returned across the service boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so callers can write errors.Is(err, services.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Kind sentinels for errors.Is.
var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrPaymentRequired  = &Error{Kind: KindPaymentRequired}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrTooEarly         = &Error{Kind: KindTooEarly}
	ErrAlreadyFinalized = &Error{Kind: KindAlreadyFinalized}
	ErrRateLimited      = &Error{Kind: KindRateLimited}
	ErrUpstreamFailure  = &Error{Kind: KindUpstreamFailure}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string) error { return newError(KindUnauthenticated, "%s", msg) }
func Forbidden(msg string) error       { return newError(KindForbidden, "%s", msg) }
func PaymentRequired(msg string) error { return newError(KindPaymentRequired, "%s", msg) }
func NotFound(msg string) error        { return newError(KindNotFound, "%s", msg) }
func Conflict(msg string) error        { return newError(KindConflict, "%s", msg) }
func TooEarly(msg string) error        { return newError(KindTooEarly, "%s", msg) }
func AlreadyFinalized(msg string) error {
	return newError(KindAlreadyFinalized, "%s", msg)
}

func InvalidInput(format string, args ...any) error {
	return newError(KindInvalidInput, format, args...)
}

// Upstream wraps an infrastructure failure.
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstreamFailure, Message: msg, Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error count as upstream failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstreamFailure
}
