package engine

import (
	"errors"
	"fmt"

	sdk "github.com/wormhole-project/sdk"
	"github.com/wormhole-project/sdk/conn"
)

// The engine exposes its install and invoke primitives to external clients
// as ordinary SQL functions. Statements use sequential markers, matching the
// driver-side contract.
const (
	sqlInstall = "SELECT wormhole_install(?, ?, ?)"
	sqlInvoke  = "SELECT wormhole_invoke(?, ?)"
)

// errEmptyReply flags a primitive call that produced no result value.
var errEmptyReply = errors.New("engine function call returned no value")

// SQLClient reaches the install and invoke primitives from client mode by
// calling the engine's SQL functions over a driver connection. Query is not
// provided: client-mode queries go straight to the driver.
type SQLClient struct {
	conn conn.Connection
}

// Ensure SQLClient satisfies the Caller interface at compile time.
var _ Caller = (*SQLClient)(nil)

// NewSQLClient creates a driver-backed engine caller.
func NewSQLClient(c conn.Connection) (*SQLClient, error) {
	if c == nil {
		return nil, sdk.ErrNoConnection
	}
	return &SQLClient{conn: c}, nil
}

// Install deploys a function body by calling wormhole_install over the
// bound connection.
func (c *SQLClient) Install(name, body, signatureJSON string) (InstallResult, error) {
	raw, err := c.callFunction(sqlInstall, name, body, signatureJSON)
	if err != nil {
		return InstallResult{}, err
	}
	return decodeInstall(raw)
}

// Invoke runs an installed function by calling wormhole_invoke over the
// bound connection.
func (c *SQLClient) Invoke(funcID, argsJSON string) (InvokeResult, error) {
	raw, err := c.callFunction(sqlInvoke, funcID, argsJSON)
	if err != nil {
		return InvokeResult{}, err
	}
	return decodeInvoke(raw)
}

// callFunction executes a single-value engine function call and returns the
// JSON text it produced. Driver errors propagate unmodified so an enclosing
// transaction can classify them.
func (c *SQLClient) callFunction(query string, args ...any) ([]byte, error) {
	res, err := c.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return nil, errors.Join(sdk.ErrHostResponseInvalid, errEmptyReply)
	}
	switch v := res.Rows[0][0].(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, errors.Join(sdk.ErrHostResponseInvalid, fmt.Errorf("unexpected reply type %T", v))
	}
}
