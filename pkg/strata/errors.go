package strata

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is raised by generated Controllers getters used before Start
	ErrNotStarted = errors.New("strata: controllers accessed before Start was called")

	// ErrCancelled fails tasks that were cancelled before they began running
	ErrCancelled = errors.New("strata: task cancelled")

	// ErrUnknownExecutor is returned when an executor tag has no registered executor
	ErrUnknownExecutor = errors.New("strata: unknown executor")

	// ErrExecutorClosed is returned when work is posted to a closed executor
	ErrExecutorClosed = errors.New("strata: executor closed")

	// ErrMethodNotRegistered is returned by a MethodHandle whose key was never registered
	ErrMethodNotRegistered = errors.New("strata: method not registered")
)

// PanicError carries a value recovered from a panicking unit of work
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("strata: panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StepError reports which continuation of a chain failed
type StepError struct {
	Index    int
	Name     string
	Executor string
	Cause    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("strata: step %d (%s on %s) failed: %v", e.Index, e.Name, e.Executor, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// protect runs fn and converts a panic into a PanicError
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}

// Must unwraps a constructor result, panicking with the error. Generated code uses
// it for constructors that return (T, error); the panic is recovered by the
// enclosing task or barrier and reported as a tagged failure.
func Must[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}
