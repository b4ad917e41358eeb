package chat

import (
	"errors"
	"time"

	"prism/internal/ratelimit"
)

const (
	CodeInvalidArgument = "invalid_argument"
	CodeRateLimited     = "rate_limited"
	CodeModelNotFound   = "model_not_found"
	CodeNotFound        = "not_found"
	CodeUpstream        = "upstream_error"
	CodeInternal        = "internal"
)

// Error is a request failure that the transports report with Code and an
// HTTP-style Status.
type Error struct {
	Code       string
	Status     int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func invalid(msg string) *Error {
	return &Error{Code: CodeInvalidArgument, Status: 400, Message: msg}
}

// RateLimited builds the error reported for a denied decision.
func RateLimited(d ratelimit.Decision, now time.Time) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Status:     429,
		Message:    "rate limit exceeded, try again later",
		RetryAfter: d.RetryAfter(now),
	}
}

// AsError returns err as an *Error, treating anything else as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Status: 500, Message: "internal error", Err: err}
}
