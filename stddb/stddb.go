package stddb

import (
	"context"
	"database/sql"

	"github.com/wormhole-project/sdk/conn"
)

// Conn adapts a dedicated database/sql session to the conn.Connection
// contract. A transaction is opened lazily before the first statement, and
// Commit/Rollback outside an open transaction are no-ops, matching the
// implicit-transaction behavior of classic driver connections.
type Conn struct {
	ctx  context.Context
	sess *sql.Conn
	inTx bool
}

// Ensure Conn satisfies the connection contract at compile time.
var _ conn.Connection = (*Conn)(nil)

// New pins a single session from db so that transaction control statements
// and queries share one underlying connection. The context governs every
// statement issued through the returned Conn.
func New(ctx context.Context, db *sql.DB) (*Conn, error) {
	sess, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{ctx: ctx, sess: sess}, nil
}

func (c *Conn) begin() error {
	if c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(c.ctx, "BEGIN"); err != nil {
		return err
	}
	c.inTx = true
	return nil
}

// Query executes a row-returning statement and materializes the full result
// set. Byte-slice values are normalized to strings so both execution modes
// produce the same value shapes.
func (c *Conn) Query(query string, args ...any) (*conn.Result, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	rows, err := c.sess.QueryContext(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &conn.Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Exec executes a statement that returns no rows and reports the number of
// rows affected, or -1 when the driver cannot tell.
func (c *Conn) Exec(query string, args ...any) (int64, error) {
	if err := c.begin(); err != nil {
		return 0, err
	}
	res, err := c.sess.ExecContext(c.ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

// Commit commits the open transaction, if any.
func (c *Conn) Commit() error {
	if !c.inTx {
		return nil
	}
	c.inTx = false
	_, err := c.sess.ExecContext(c.ctx, "COMMIT")
	return err
}

// Rollback rolls back the open transaction, if any.
func (c *Conn) Rollback() error {
	if !c.inTx {
		return nil
	}
	c.inTx = false
	_, err := c.sess.ExecContext(c.ctx, "ROLLBACK")
	return err
}

// Close returns the pinned session to its pool. Any open transaction is
// rolled back first.
func (c *Conn) Close() error {
	if err := c.Rollback(); err != nil {
		c.sess.Close()
		return err
	}
	return c.sess.Close()
}
