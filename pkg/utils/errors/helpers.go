package errors

import (
	"context"
	stderrors "errors"
)

// FromError converts any error to Errno.
// An Errno anywhere in the chain is returned as is, context deadlines map to
// ErrTimeout and everything else is wrapped as ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return ErrTimeout.WithCause(err)
	case stderrors.Is(err, context.Canceled):
		return ErrContextCanceled.WithCause(err)
	}
	return ErrInternal.WithCause(err)
}

// IsCode checks if the error chain carries the given error code.
func IsCode(err error, code int) bool {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code from an error.
// Returns -1 if the error is not an Errno.
func GetCode(err error) int {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code
	}
	return -1
}
