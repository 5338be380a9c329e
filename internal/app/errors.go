package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrShutdownTimeout indicates the loops did not stop in time.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// OperationError is a failed startup operation on one target, such as
// opening a file named on the command line.
type OperationError struct {
	Op     string
	Target string
	Err    error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError is a failure of one component during bootstrap or
// shutdown.
type ComponentError struct {
	Component string // e.g. "config", "watcher", "proxy"
	Action    string
	Err       error
}

// NewComponentError creates a new ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{Component: component, Action: action, Err: err}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Component
	if e.Action != "" {
		msg += ": " + e.Action
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveredPanicError wraps a panic recovered from a loop goroutine.
// Error includes the stack.
type RecoveredPanicError struct {
	Component string
	Value     any
	Stack     string
}

func (e *RecoveredPanicError) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("%s panicked: %v\n%s", e.Component, e.Value, e.Stack)
	}
	return fmt.Sprintf("%s panicked: %v", e.Component, e.Value)
}

// ErrorList collects shutdown errors. It is not safe for concurrent use.
type ErrorList struct {
	errs []error
}

// Add appends err unless it is nil.
func (l *ErrorList) Add(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	return len(l.errs)
}

func (l *ErrorList) Error() string {
	switch len(l.errs) {
	case 0:
		return ""
	case 1:
		return l.errs[0].Error()
	}
	return fmt.Sprintf("%d errors: first: %v", len(l.errs), l.errs[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	return l.errs
}

// AsError returns nil for an empty list and l otherwise.
func (l *ErrorList) AsError() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}
