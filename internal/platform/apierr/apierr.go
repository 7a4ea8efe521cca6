package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable codes carried in the error envelope.
const (
	CodeUnauthorized = "unauthorized"
	CodeValidation   = "validation_failed"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeRateLimited  = "rate_limited"
	CodeUpstream     = "upstream_failure"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg))
}

func Validation(msg string) *Error {
	return New(http.StatusBadRequest, CodeValidation, errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, CodeForbidden, errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(msg))
}

func Conflict(msg string) *Error {
	return New(http.StatusConflict, CodeConflict, errors.New(msg))
}

func RateLimited() *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, errors.New("too many requests"))
}

// Upstream wraps a store or media host failure. The cause is kept for logging only.
func Upstream(op string, cause error) *Error {
	return New(http.StatusInternalServerError, CodeUpstream, fmt.Errorf("%s: %w", op, cause))
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, 500 for anything that is not an *Error.
func StatusOf(err error) int {
	if ae, ok := As(err); ok && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
