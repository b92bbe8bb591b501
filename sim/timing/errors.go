package timing

import (
	"errors"
	"fmt"
)

var (
	// ErrCausality is returned when an event would be scheduled before the
	// current simulation time.
	ErrCausality = errors.New("causality violation")

	// ErrEmptyQueue is returned when a step is requested but no event is
	// pending.
	ErrEmptyQueue = errors.New("event queue is empty")

	// ErrIllegalState marks a broken kernel invariant. The run cannot
	// continue after it.
	ErrIllegalState = errors.New("illegal state")
)

// UserCodeError reports a failure raised by model code, either a callback
// event or a process lifecycle.
type UserCodeError struct {
	Source string
	Time   VTimeInSec
	Cause  error
}

func (e *UserCodeError) Error() string {
	return fmt.Sprintf("%s failed at %.10f: %v", e.Source, e.Time, e.Cause)
}

// Unwrap returns the error raised by the model code.
func (e *UserCodeError) Unwrap() error {
	return e.Cause
}

// RecoveredError converts a value obtained from recover into an error.
func RecoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}

	return fmt.Errorf("panic: %v", r)
}
