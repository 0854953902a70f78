package worker

import (
	"github.com/taskmill/taskmill/sdk/internal"
)

var (
	// ErrWorkerShutdown is returned by Submit once shutdown has begun, and
	// by activity.RecordHeartbeat once a forced shutdown has been requested.
	ErrWorkerShutdown = internal.ErrWorkerShutdown

	// ErrActivityNotRegistered is returned when an invocation names an unknown function.
	ErrActivityNotRegistered = internal.ErrActivityNotRegistered

	// ErrInvalidFunction is returned when attempting to register a non-function value.
	ErrInvalidFunction = internal.ErrInvalidFunction

	// ErrDuplicateRegistration is returned when registering a function twice.
	ErrDuplicateRegistration = internal.ErrDuplicateRegistration

	// ErrNoTaskSource is returned by Run on a worker built without a task source.
	ErrNoTaskSource = internal.ErrNoTaskSource
)

// RegistrationError wraps the cause of a failed activity registration.
type RegistrationError = internal.RegistrationError
