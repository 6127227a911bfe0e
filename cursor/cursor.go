package cursor

import (
	sdk "github.com/wormhole-project/sdk"
	"github.com/wormhole-project/sdk/conn"
	"github.com/wormhole-project/sdk/engine"
)

// DefaultFetchSize is the number of rows FetchMany returns when no size is
// given.
const DefaultFetchSize = 1

// Column describes one result column: its name plus whatever opaque
// metadata the underlying driver reported. In-engine results carry no
// metadata beyond the name.
type Column struct {
	Name string
	Meta any
}

// Config controls how a Cursor executes statements.
type Config struct {
	// SDKConfig provides the execution mode and namespace.
	SDKConfig sdk.RuntimeConfig

	// Conn binds the cursor to an explicit driver connection (client mode).
	Conn conn.Connection

	// Stack supplies the current connection when Conn is not set (client
	// mode).
	Stack *conn.Stack

	// Engine overrides the engine client used for in-engine execution.
	Engine engine.Client
}

// Cursor issues SQL through either execution path and normalizes results to
// one internal shape: an ordered sequence of row mappings plus a read
// position. Statements may use sequential ? markers or numbered $n markers
// interchangeably; parameters are always supplied positionally.
type Cursor struct {
	runtime sdk.RuntimeConfig
	engine  engine.Client
	conn    conn.Connection

	results  []map[string]any
	columns  []Column
	rowcount int
	pos      int
}

// New creates a cursor for the configured execution mode. In client mode a
// resolvable connection is required: the explicit Conn, or the current value
// of Stack. Its absence is a configuration error, not a retryable one.
func New(cfg Config) (*Cursor, error) {
	cur := &Cursor{runtime: cfg.SDKConfig, rowcount: -1}

	if cfg.SDKConfig.Mode == sdk.ModeEngine {
		eng := cfg.Engine
		if eng == nil {
			var err error
			eng, err = engine.New(engine.Config{SDKConfig: cfg.SDKConfig})
			if err != nil {
				return nil, err
			}
		}
		cur.engine = eng
		return cur, nil
	}

	c := cfg.Conn
	if c == nil && cfg.Stack != nil {
		c = cfg.Stack.Get()
	}
	if c == nil {
		return nil, sdk.ErrNoConnection
	}
	cur.conn = c
	return cur, nil
}

// Execute runs a statement with positional parameters, replacing any stored
// result set and resetting the read position. It returns the cursor for
// chaining. Execution errors propagate unmodified; classification is the
// transaction engine's job.
func (c *Cursor) Execute(sqlText string, params ...any) (*Cursor, error) {
	if c.runtime.Mode == sdk.ModeEngine {
		return c.executeEngine(sqlText, params)
	}
	return c.executeClient(sqlText, params)
}

func (c *Cursor) executeEngine(sqlText string, params []any) (*Cursor, error) {
	res, err := c.engine.Query(ToNumbered(sqlText), params...)
	if err != nil {
		return nil, err
	}

	c.results = res.Rows
	c.rowcount = res.NRows
	c.pos = 0
	c.columns = nil
	for _, name := range res.Columns {
		c.columns = append(c.columns, Column{Name: name})
	}
	return c, nil
}

func (c *Cursor) executeClient(sqlText string, params []any) (*Cursor, error) {
	res, err := c.conn.Query(ToSequential(sqlText), params...)
	if err != nil {
		return nil, err
	}

	// Zip positional rows and column names into the same row-mapping shape
	// the engine path produces.
	c.results = make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		m := make(map[string]any, len(res.Columns))
		for i, name := range res.Columns {
			if i < len(row) {
				m[name] = row[i]
			}
		}
		c.results = append(c.results, m)
	}
	c.rowcount = len(res.Rows)
	c.pos = 0
	c.columns = nil
	for _, name := range res.Columns {
		c.columns = append(c.columns, Column{Name: name})
	}
	return c, nil
}

// FetchOne returns the next row as positional values in column order, or
// nil when the result set is exhausted. Over-fetching is never an error.
func (c *Cursor) FetchOne() []any {
	if c.pos >= len(c.results) {
		return nil
	}
	row := c.tuple(c.results[c.pos])
	c.pos++
	return row
}

// FetchMany returns up to size rows as positional values, fewer when the
// result set runs out. A size below 1 means DefaultFetchSize.
func (c *Cursor) FetchMany(size int) [][]any {
	if size < 1 {
		size = DefaultFetchSize
	}
	out := make([][]any, 0, size)
	for len(out) < size {
		row := c.FetchOne()
		if row == nil {
			break
		}
		out = append(out, row)
	}
	return out
}

// FetchAll returns all remaining rows as positional values.
func (c *Cursor) FetchAll() [][]any {
	out := make([][]any, 0, len(c.results)-c.pos)
	for c.pos < len(c.results) {
		out = append(out, c.tuple(c.results[c.pos]))
		c.pos++
	}
	return out
}

// FetchOneMap returns the next row as a column to value mapping, or nil
// when the result set is exhausted.
func (c *Cursor) FetchOneMap() map[string]any {
	if c.pos >= len(c.results) {
		return nil
	}
	row := c.results[c.pos]
	c.pos++
	return row
}

// FetchAllMap returns the remaining rows as column to value mappings
// without advancing the read position.
func (c *Cursor) FetchAllMap() []map[string]any {
	if c.pos >= len(c.results) {
		return []map[string]any{}
	}
	return c.results[c.pos:]
}

// Description returns the column descriptors of the current result set, or
// nil when the last statement produced no description.
func (c *Cursor) Description() []Column { return c.columns }

// RowCount returns the row count of the current result set, or -1 before
// the first Execute.
func (c *Cursor) RowCount() int { return c.rowcount }

// Close releases the cursor. Result sets are materialized eagerly, so no
// driver state remains to release; Close exists for contract symmetry.
func (c *Cursor) Close() error {
	c.results = nil
	c.columns = nil
	return nil
}

// tuple converts a row mapping into positional values, ordered by the
// current column descriptors.
func (c *Cursor) tuple(row map[string]any) []any {
	out := make([]any, 0, len(c.columns))
	for _, col := range c.columns {
		out = append(out, row[col.Name])
	}
	return out
}
