package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	sdk "github.com/wormhole-project/sdk"
	"github.com/wormhole-project/sdk/conn"
	"github.com/wormhole-project/sdk/engine"
)

var (
	// ErrSourceUnavailable is returned when a registered function has no
	// recoverable body. Registration does not proceed.
	ErrSourceUnavailable = errors.New("function source is unavailable")

	// ErrNameEmpty is returned when a function is registered without a name.
	ErrNameEmpty = errors.New("function name cannot be empty")

	// ErrInstallFailed wraps failures while installing a function on the
	// engine.
	ErrInstallFailed = errors.New("remote function installation failed")

	// ErrInvocationFailed is returned when the engine reports an
	// unsuccessful invocation; the engine-provided detail is attached.
	ErrInvocationFailed = errors.New("remote function invocation failed")

	// ErrSignatureMismatch is returned when call arguments cannot be bound
	// against the declared signature.
	ErrSignatureMismatch = errors.New("arguments do not match function signature")
)

// Config controls how remote functions resolve their execution path.
type Config struct {
	// SDKConfig provides the execution mode and namespace.
	SDKConfig sdk.RuntimeConfig

	// Conn binds calls to an explicit driver connection (client mode).
	Conn conn.Connection

	// Stack supplies the current connection when Conn is not set (client
	// mode). The connection is resolved on every call, so the function
	// follows whatever scope is active at call time.
	Stack *conn.Stack

	// Engine overrides the engine caller used for in-engine execution.
	Engine engine.Caller

	// Logger receives install lifecycle events. Defaults to a nop logger.
	Logger *zap.Logger
}

// Function is a registered remote function: a deployable body plus a
// declared signature, invokable with ordinary call syntax. Its lifecycle is
// monotonic: registered at creation, installed on first call, handle cached
// for the rest of the process.
type Function struct {
	cfg    Config
	name   string
	source string
	sig    Signature
	logger *zap.Logger

	mu        sync.Mutex
	funcID    string
	installed bool
}

// Register captures a function's source text and signature, making it
// callable. The source is normalized first: registration marker lines are
// stripped and uniform indentation is removed so the stored text is
// independently parseable. A function whose normalized body is empty cannot
// be registered.
func Register(cfg Config, name, source string, sig Signature) (*Function, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}
	normalized := normalizeSource(source)
	if normalized == "" {
		return nil, fmt.Errorf("%w: function %q has no recoverable body", ErrSourceUnavailable, name)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Function{
		cfg:    cfg,
		name:   name,
		source: normalized,
		sig:    sig,
		logger: logger,
	}, nil
}

// Name returns the declared function name.
func (f *Function) Name() string { return f.name }

// Source returns the normalized body text as it will be installed.
func (f *Function) Source() string { return f.source }

// Installed reports whether the function has been installed on the engine.
func (f *Function) Installed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installed
}

// Call invokes the function with positional arguments and returns the
// engine-side result.
func (f *Function) Call(args ...any) (any, error) {
	return f.CallNamed(args, nil)
}

// CallNamed invokes the function with positional and named arguments.
// Arguments are bound against the declared signature, defaults fill omitted
// parameters, and the bound set is serialized for the invoke primitive.
func (f *Function) CallNamed(args []any, named map[string]any) (any, error) {
	bound, err := f.sig.bind(args, named)
	if err != nil {
		return nil, err
	}

	caller, err := f.caller()
	if err != nil {
		return nil, err
	}

	funcID, err := f.install(caller)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(bound)
	if err != nil {
		return nil, errors.Join(ErrInvocationFailed, err)
	}

	res, err := caller.Invoke(funcID, string(payload))
	if err != nil {
		return nil, err
	}
	if !res.Success {
		if res.Detail != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvocationFailed, f.name, res.Detail)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvocationFailed, f.name)
	}
	return res.Result, nil
}

// caller resolves the engine path for the current call. In client mode the
// connection is looked up per call; its absence is a configuration error.
func (f *Function) caller() (engine.Caller, error) {
	if f.cfg.SDKConfig.Mode == sdk.ModeEngine {
		if f.cfg.Engine != nil {
			return f.cfg.Engine, nil
		}
		return engine.New(engine.Config{SDKConfig: f.cfg.SDKConfig})
	}

	c := f.cfg.Conn
	if c == nil && f.cfg.Stack != nil {
		c = f.cfg.Stack.Get()
	}
	if c == nil {
		return nil, sdk.ErrNoConnection
	}
	return engine.NewSQLClient(c)
}

// install deploys the function on first use and caches the installation
// handle. A successful install is final for the process lifetime; a failed
// one leaves the function uninstalled so the next call attempts again.
func (f *Function) install(caller engine.Caller) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.installed {
		return f.funcID, nil
	}

	sigJSON, err := json.Marshal(f.sig)
	if err != nil {
		return "", errors.Join(ErrInstallFailed, err)
	}

	res, err := caller.Install(f.name, f.source, string(sigJSON))
	if err != nil {
		return "", errors.Join(ErrInstallFailed, err)
	}

	f.funcID = res.FuncID
	f.installed = true
	f.logger.Debug("installed remote function",
		zap.String("name", f.name),
		zap.String("func_id", res.FuncID),
		zap.Bool("cached", res.Cached),
	)
	return f.funcID, nil
}
