package rsvp

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound means no invitation matched the lookup. It is not a fault.
	ErrNotFound = errors.New("no matching invitation found")
	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("directory request failed")
	// ErrPrecondition aborts a submission before any RSVP is written.
	ErrPrecondition = errors.New("precondition failed")
)

// ValidationError is a user-correctable problem with one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failed directory call. Its message carries the
// directory's own error text.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Timeout reports whether the call ran out of time.
func (e *UpstreamError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
