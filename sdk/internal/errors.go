package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkerShutdown is returned when the worker no longer accepts
	// invocations, and by heartbeat calls once a forced shutdown has been
	// requested. An activity body receiving it from a heartbeat is expected
	// to stop and return.
	ErrWorkerShutdown = errors.New("worker is shutting down")

	// ErrActivityNotRegistered is returned when an invocation names a
	// function the worker does not know.
	ErrActivityNotRegistered = errors.New("activity not registered")

	// ErrInvalidFunction is returned when attempting to register an invalid function
	ErrInvalidFunction = errors.New("invalid function: must be a function type")

	// ErrDuplicateRegistration is returned when attempting to register a function that is already registered
	ErrDuplicateRegistration = errors.New("function already registered")

	// ErrDuplicateExecution indicates an execution id collision. Ids are
	// generated per invocation, so this is a programming error.
	ErrDuplicateExecution = errors.New("execution already registered")

	// ErrExecutionNotFound is reported when deregistering an execution that
	// was already removed. Expected under the race between a finishing body
	// and a forced interrupt; callers treat it as benign.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrNoTaskSource is returned by Run when the worker was built without
	// a task source.
	ErrNoTaskSource = errors.New("worker has no task source")
)

// RegistrationError represents an error that occurred during function registration
type RegistrationError struct {
	FunctionName string
	Cause        error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register function %s: %v", e.FunctionName, e.Cause)
}

func (e *RegistrationError) Unwrap() error {
	return e.Cause
}
