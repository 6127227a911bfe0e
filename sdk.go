// Package sdk provides the execution context shared by all wormhole
// components: which side of the database boundary code is running on, and
// the namespace used for in-engine host calls.
//
// Code running as an external client constructs a RuntimeConfig directly
// (the zero value is client mode). Code running inside the database engine
// is initialized exactly once through New at the runtime boundary, which
// registers the entry-point handler and yields a RuntimeConfig in engine
// mode. Components never mutate the mode; they receive it by value at
// construction time.
package sdk

import (
	"fmt"

	wapc "github.com/wapc/wapc-guest-tinygo"
)

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "wormhole"

var (
	// ErrHandlerNil is returned when the provided entry-point handler is nil.
	ErrHandlerNil = fmt.Errorf("entry-point handler cannot be nil")
)

// Mode selects which execution path dual-mode components use.
type Mode int

const (
	// ModeClient executes SQL through an external driver connection. It is
	// the zero value so a literal RuntimeConfig is a valid client context.
	ModeClient Mode = iota

	// ModeEngine executes SQL through the in-engine call primitives.
	ModeEngine
)

// String returns a short name for the mode.
func (m Mode) String() string {
	if m == ModeEngine {
		return "engine"
	}
	return "client"
}

// Config provides configuration options for in-engine SDK initialization.
type Config struct {
	// Namespace controls the namespace used for host callbacks.
	// If empty, DefaultNamespace is used.
	Namespace string

	// Handler is the function registered as the in-engine entry point.
	Handler func([]byte) ([]byte, error)
}

// RuntimeConfig carries the execution context that is passed into every
// dual-mode component at construction time.
type RuntimeConfig struct {
	// Namespace is the namespace used to scope engine host calls.
	Namespace string

	// Mode reports which side of the database boundary this process runs on.
	Mode Mode
}

// SDK represents the initialized in-engine runtime with a registered
// entry-point handler.
type SDK struct {
	// runtime holds the current runtime configuration snapshot.
	runtime RuntimeConfig

	// handler is the function registered as the in-engine entry point.
	handler func([]byte) ([]byte, error)
}

// New initializes the in-engine runtime boundary and registers the handler
// with waPC. The returned SDK's Config is the single source of the engine
// execution mode for the process.
func New(config Config) (*SDK, error) {
	// Validate Handler is not empty
	if config.Handler == nil {
		return nil, ErrHandlerNil
	}

	// Create runtime configuration with defaults
	cfg := RuntimeConfig{Namespace: DefaultNamespace, Mode: ModeEngine}

	// Override defaults with provided configuration
	if config.Namespace != "" {
		cfg.Namespace = config.Namespace
	}

	// Create SDK instance
	sdk := &SDK{
		runtime: cfg,
		handler: config.Handler,
	}

	// Register the provided handler with waPC
	wapc.RegisterFunction("handler", sdk.handler)

	return sdk, nil
}

// Config returns the current runtime configuration snapshot.
func (s *SDK) Config() RuntimeConfig { return s.runtime }
