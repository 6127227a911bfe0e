package conn

import "sync"

// Result is a fully materialized result set from a driver connection:
// column names in result order plus positional row values.
type Result struct {
	// Columns are the column names in result order.
	Columns []string

	// Rows are the row values, positionally aligned with Columns.
	Rows [][]any
}

// Connection is the driver-side contract used in client mode. SQL text uses
// sequential ? markers. Implementations open a transaction lazily before the
// first statement; Commit and Rollback outside an open transaction are
// no-ops. A Connection is used by one logical caller at a time.
type Connection interface {
	// Query executes a statement that returns rows and materializes the
	// full result set.
	Query(query string, args ...any) (*Result, error)

	// Exec executes a statement that does not return rows and reports the
	// number of rows affected, or -1 when the driver cannot tell.
	Exec(query string, args ...any) (int64, error)

	// Commit commits the open transaction, if any.
	Commit() error

	// Rollback rolls back the open transaction, if any.
	Rollback() error
}

// Stack is an explicit last-in-first-out scope of connections. Callers own
// one Stack per logical execution scope and pass it to the components that
// need a current connection; nested scopes push on entry and pop on exit.
//
// All operations are total: popping or reading an empty stack yields nil
// rather than an error. Consumers that require a connection convert the nil
// into a reported error themselves.
type Stack struct {
	mu    sync.Mutex
	conns []Connection
}

// NewStack returns an empty connection stack.
func NewStack() *Stack { return &Stack{} }

// Set pushes c onto the stack, making it the current connection.
func (s *Stack) Set(c Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns = append(s.conns, c)
}

// Get returns the current connection without mutating the stack, or nil if
// the stack is empty.
func (s *Stack) Get() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		return nil
	}
	return s.conns[len(s.conns)-1]
}

// Pop removes and returns the current connection, or nil if the stack is
// empty.
func (s *Stack) Pop() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		return nil
	}
	c := s.conns[len(s.conns)-1]
	s.conns = s.conns[:len(s.conns)-1]
	return c
}

// With pushes c for the duration of fn and pops it on every exit path,
// including panics.
func (s *Stack) With(c Connection, fn func() error) error {
	s.Set(c)
	defer s.Pop()
	return fn()
}
