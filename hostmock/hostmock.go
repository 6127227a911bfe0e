package hostmock

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when no handler is registered for the function.
	ErrUnexpectedFunction = errors.New("unexpected function")

	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")
)

// Mock simulates the engine host-call surface with validation, per-function
// handlers, and call counting.
type Mock struct {
	// ExpectedNamespace defines the namespace expected in host calls.
	// Empty accepts any namespace.
	ExpectedNamespace string

	// ExpectedCapability defines the capability expected in host calls.
	// Empty accepts any capability.
	ExpectedCapability string

	// Handlers maps function names to response handlers.
	Handlers map[string]func(payload []byte) ([]byte, error)

	// PayloadValidator validates the payload of every host call before its
	// handler runs.
	PayloadValidator func(function string, payload []byte) error

	// Error is the error to return if the mock is configured to fail.
	Error error

	// Fail indicates whether the mock should return an error.
	Fail bool

	mu    sync.Mutex
	calls map[string]int
}

// Config represents the configuration for creating a Mock instance.
type Config struct {
	// ExpectedNamespace defines the namespace expected in host calls.
	ExpectedNamespace string

	// ExpectedCapability defines the capability expected in host calls.
	ExpectedCapability string

	// Handlers maps function names to response handlers.
	Handlers map[string]func(payload []byte) ([]byte, error)

	// PayloadValidator validates the payload of every host call.
	PayloadValidator func(function string, payload []byte) error

	// Error is the error to return if the mock is configured to fail.
	Error error

	// Fail indicates whether the mock should return an error.
	Fail bool
}

// New creates a new instance of the Mock based on the provided Config.
func New(config Config) (*Mock, error) {
	return &Mock{
		ExpectedNamespace:  config.ExpectedNamespace,
		ExpectedCapability: config.ExpectedCapability,
		Handlers:           config.Handlers,
		PayloadValidator:   config.PayloadValidator,
		Error:              config.Error,
		Fail:               config.Fail,
		calls:              make(map[string]int),
	}, nil
}

// HostCall simulates an engine host call: it counts the call, validates
// inputs, and routes to the function's handler.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[function]++
	m.mu.Unlock()

	// Return user-defined error if Fail is set
	if m.Fail && m.Error != nil {
		return nil, m.Error
	}

	// Return default error if Fail is set but no custom error is provided
	if m.Fail {
		return nil, ErrOperationFailed
	}

	// Validate namespace
	if m.ExpectedNamespace != "" && m.ExpectedNamespace != namespace {
		return nil, fmt.Errorf(
			"%w: expected namespace %s, got %s",
			ErrUnexpectedNamespace,
			m.ExpectedNamespace,
			namespace,
		)
	}

	// Validate capability
	if m.ExpectedCapability != "" && m.ExpectedCapability != capability {
		return nil, fmt.Errorf(
			"%w: expected capability %s, got %s",
			ErrUnexpectedCapability,
			m.ExpectedCapability,
			capability,
		)
	}

	// Validate payload using user-defined validator, if provided
	if m.PayloadValidator != nil {
		if err := m.PayloadValidator(function, payload); err != nil {
			return nil, err
		}
	}

	handler, ok := m.Handlers[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedFunction, function)
	}
	return handler(payload)
}

// Calls reports how many times the named function has been invoked.
func (m *Mock) Calls(function string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[function]
}
