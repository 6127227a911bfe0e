package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/wormhole-project/sdk"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "wormhole"
	fnQuery        = "query"
	fnInstall      = "install"
	fnInvoke       = "invoke"
)

var (
	// ErrInvalidQuery indicates an empty or invalid SQL query.
	ErrInvalidQuery = errors.New("query is invalid")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to marshal request")

	// ErrUnmarshalResponse wraps failures while decoding the engine response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")

	// errMissingFuncID flags an install reply without an installation handle.
	errMissingFuncID = errors.New("install reply carries no func_id")
)

// HostCall defines the waPC host function signature used to reach the
// engine primitives from in-engine code.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Querier executes SQL through the engine query primitive. SQL text uses
// numbered $1..$n markers only.
type Querier interface {
	Query(sql string, args ...any) (QueryResult, error)
}

// Caller installs and invokes remote functions through the engine
// primitives.
type Caller interface {
	// Install deploys a function body under name and returns its
	// installation handle. Installing a byte-identical (name, body,
	// signature) triple again is idempotent on the engine side.
	Install(name, body, signatureJSON string) (InstallResult, error)

	// Invoke runs an installed function with JSON-serialized arguments and
	// returns the engine's result envelope.
	Invoke(funcID, argsJSON string) (InvokeResult, error)
}

// Client is the full engine primitive surface.
type Client interface {
	Querier
	Caller
}

// QueryResult is the normalized shape of the query primitive's reply.
type QueryResult struct {
	// Rows are the returned rows as column name to value mappings.
	Rows []map[string]any

	// Columns are the column names in result order, recovered from the
	// first row; empty when the query returned no rows.
	Columns []string

	// NRows is the engine-reported row count.
	NRows int
}

// InstallResult is the reply of the install primitive.
type InstallResult struct {
	// FuncID is the opaque installation handle assigned by the engine.
	FuncID string

	// Cached reports whether the engine already held a matching installation.
	Cached bool
}

// InvokeResult is the reply envelope of the invoke primitive. The engine
// layer does not interpret Success; callers decide how a failure surfaces.
type InvokeResult struct {
	// Success reports whether the invocation completed on the engine side.
	Success bool

	// Result is the decoded result payload, meaningful when Success is true.
	Result any

	// Detail carries the engine-provided failure detail when Success is false.
	Detail string
}

type queryRequest struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

type queryResponse struct {
	Rows  []json.RawMessage `json:"rows"`
	NRows int               `json:"nrows"`
}

type installRequest struct {
	Name      string `json:"name"`
	Body      string `json:"body"`
	Signature string `json:"signature"`
}

type installResponse struct {
	FuncID string `json:"func_id"`
	Cached bool   `json:"cached"`
}

type invokeRequest struct {
	FuncID string          `json:"func_id"`
	Args   json.RawMessage `json:"args"`
}

type invokeResponse struct {
	Success bool   `json:"success"`
	Result  any    `json:"result"`
	Error   string `json:"error"`
}

// Config controls how a HostClient reaches the engine runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sdk.RuntimeConfig

	// HostCall overrides the waPC host function used for engine calls.
	HostCall HostCall
}

// HostClient reaches the engine primitives through waPC host calls. It is
// the in-engine implementation of Client.
type HostClient struct {
	runtime  sdk.RuntimeConfig
	hostCall HostCall
}

// Ensure HostClient satisfies the Client interface at compile time.
var _ Client = (*HostClient)(nil)

// New creates a host-call-backed engine client with namespace defaults and
// optional host-call override.
func New(config Config) (*HostClient, error) {
	runtime := config.SDKConfig
	if runtime.Namespace == "" {
		runtime.Namespace = sdk.DefaultNamespace
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &HostClient{runtime: runtime, hostCall: hostCall}, nil
}

// Query executes SQL through the query primitive. The statement must use
// numbered markers; args are bound positionally by index.
func (c *HostClient) Query(sqlText string, args ...any) (QueryResult, error) {
	if sqlText == "" {
		return QueryResult{}, ErrInvalidQuery
	}
	if args == nil {
		args = []any{}
	}

	b, err := json.Marshal(queryRequest{SQL: sqlText, Args: args})
	if err != nil {
		return QueryResult{}, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := c.hostCall(c.runtime.Namespace, capabilityName, fnQuery, b)
	if callErr != nil {
		return QueryResult{}, errors.Join(sdk.ErrHostCall, callErr)
	}

	var resp queryResponse
	if unmarshalErr := json.Unmarshal(respBytes, &resp); unmarshalErr != nil {
		return QueryResult{}, errors.Join(sdk.ErrHostResponseInvalid, ErrUnmarshalResponse, unmarshalErr)
	}

	return decodeRows(resp)
}

// Install deploys a function body through the install primitive.
func (c *HostClient) Install(name, body, signatureJSON string) (InstallResult, error) {
	b, err := json.Marshal(installRequest{Name: name, Body: body, Signature: signatureJSON})
	if err != nil {
		return InstallResult{}, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := c.hostCall(c.runtime.Namespace, capabilityName, fnInstall, b)
	if callErr != nil {
		return InstallResult{}, errors.Join(sdk.ErrHostCall, callErr)
	}

	return decodeInstall(respBytes)
}

// Invoke runs an installed function through the invoke primitive.
func (c *HostClient) Invoke(funcID, argsJSON string) (InvokeResult, error) {
	req := invokeRequest{FuncID: funcID, Args: json.RawMessage(argsJSON)}
	b, err := json.Marshal(req)
	if err != nil {
		return InvokeResult{}, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := c.hostCall(c.runtime.Namespace, capabilityName, fnInvoke, b)
	if callErr != nil {
		return InvokeResult{}, errors.Join(sdk.ErrHostCall, callErr)
	}

	return decodeInvoke(respBytes)
}

func decodeRows(resp queryResponse) (QueryResult, error) {
	out := QueryResult{
		Rows:  make([]map[string]any, 0, len(resp.Rows)),
		NRows: resp.NRows,
	}
	for i, raw := range resp.Rows {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return QueryResult{}, errors.Join(sdk.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
		}
		if i == 0 {
			cols, err := objectKeys(raw)
			if err != nil {
				return QueryResult{}, errors.Join(sdk.ErrHostResponseInvalid, err)
			}
			out.Columns = cols
		}
		out.Rows = append(out.Rows, row)
	}
	// The engine may omit nrows for row-returning statements.
	if out.NRows == 0 && len(out.Rows) > 0 {
		out.NRows = len(out.Rows)
	}
	return out, nil
}

func decodeInstall(respBytes []byte) (InstallResult, error) {
	var resp installResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return InstallResult{}, errors.Join(sdk.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
	}
	if resp.FuncID == "" {
		return InstallResult{}, errors.Join(sdk.ErrHostResponseInvalid, errMissingFuncID)
	}
	return InstallResult{FuncID: resp.FuncID, Cached: resp.Cached}, nil
}

func decodeInvoke(respBytes []byte) (InvokeResult, error) {
	var resp invokeResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return InvokeResult{}, errors.Join(sdk.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
	}
	return InvokeResult{Success: resp.Success, Result: resp.Result, Detail: resp.Error}, nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
// encoding/json maps lose key order, and the order is what defines the
// column order of a synthesized result description.
func objectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("row is not a JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in row object", tok)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// skipValue consumes one JSON value, descending through nested containers so
// their keys are not mistaken for row columns.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
