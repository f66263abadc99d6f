package internal

import (
	"errors"
	"fmt"
)

// Usage errors. These are programming mistakes and are raised as panics
// carrying a *UsageError.
var (
	// ErrSendInCallback is raised when an external send happens while a
	// delivery callback is running.
	ErrSendInCallback = errors.New("send is not allowed inside a delivery callback")

	// ErrAlreadySent is raised when an external sink is sent to twice in the
	// same transaction.
	ErrAlreadySent = errors.New("sink already sent to in this transaction")

	// ErrLoopOutsideTransaction is raised when a loop is created without an
	// open transaction.
	ErrLoopOutsideTransaction = errors.New("loop must be created inside an explicit transaction")

	// ErrLoopAlreadyBound is raised when Loop is called twice on the same handle.
	ErrLoopAlreadyBound = errors.New("loop already bound")

	// ErrLoopNotBound is raised when a cell loop is sampled before Loop.
	ErrLoopNotBound = errors.New("cell loop sampled before it was bound")

	// ErrNoValue is raised when a lazy cell has neither a value nor a thunk.
	ErrNoValue = errors.New("cell has no value")
)

// UsageError wraps a usage sentinel with the operation that triggered it.
type UsageError struct {
	Op  string
	Err error
}

func (e *UsageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered panic value that was not an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func usage(op string, err error) {
	panic(&UsageError{Op: op, Err: err})
}

// IsUsage reports whether a recovered panic value is a usage error.
func IsUsage(r any) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}

	var ue *UsageError
	return errors.As(err, &ue)
}

// toError converts a recovered panic value into an error.
func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}

	return &PanicError{Value: r}
}

// capture runs a user transform, turning a panic into an Error event.
// Usage errors are not user failures and keep unwinding.
func capture(fn func() any) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			if IsUsage(r) {
				panic(r)
			}
			ev = Fail(toError(r))
		}
	}()

	return Ok(fn())
}

// Capture is capture for callers outside the package.
func Capture(fn func() any) Event {
	return capture(fn)
}

// guard runs fn and returns the failure it panicked with, if any.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if IsUsage(r) {
				panic(r)
			}
			err = toError(r)
		}
	}()

	fn()
	return nil
}
