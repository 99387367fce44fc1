// Package lifecycle starts and stops long-lived components: the HTTP server
// under a default manager and stream watchers under an async manager that
// drives their Step loop on its own goroutine.
package lifecycle

import "fmt"

// Instance is anything a manager can close and name in log lines.
type Instance interface {
	Close_()
	String() string
}

// AsyncInstance does its work in repeated Step calls until Step returns an
// error. Returning *BreakError ends the loop without a warning.
type AsyncInstance interface {
	Instance
	Step(stopChan <-chan struct{}) error
}

type Manager[T Instance] interface {
	Start(func(T) error) error
	Close()
}

type AsyncManager[T AsyncInstance] interface {
	Manager[T]
	Done() <-chan struct{}
	// Err waits for the loop to end and returns the error that ended it, or nil after a break.
	Err() error
}

type BreakError struct{}

func (*BreakError) Error() string {
	return "break"
}

type StartedAlreadyError struct{}

func (*StartedAlreadyError) Error() string {
	return "started already"
}

type StartedAfterCloseError struct{}

func (*StartedAfterCloseError) Error() string {
	return "start after close"
}

// PanicError wraps a value recovered from a panicking Step.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
