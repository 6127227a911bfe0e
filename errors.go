package sdk

import "errors"

var (
	// ErrHostCall indicates that an engine host invocation failed.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid signals that the engine returned an invalid or unexpected payload.
	ErrHostResponseInvalid = errors.New("host response is invalid or unexpected")

	// ErrHostError means the engine completed the call but reported a failure.
	ErrHostError = errors.New("host returned an error status")

	// ErrNoConnection is returned when an operation requires an active
	// database connection and none is bound to the current scope. It marks a
	// configuration mistake and is never retried.
	ErrNoConnection = errors.New("no database connection available")
)
