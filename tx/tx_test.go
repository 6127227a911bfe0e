package tx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sdk "github.com/wormhole-project/sdk"
	"github.com/wormhole-project/sdk/conn"
)

// traceConn records every transaction-control action in order.
type traceConn struct {
	events    []string
	execErr   error
	commitErr error
}

func (c *traceConn) Query(query string, args ...any) (*conn.Result, error) {
	c.events = append(c.events, "query:"+query)
	return &conn.Result{}, nil
}

func (c *traceConn) Exec(query string, args ...any) (int64, error) {
	c.events = append(c.events, "exec:"+query)
	return 0, c.execErr
}

func (c *traceConn) Commit() error {
	c.events = append(c.events, "commit")
	return c.commitErr
}

func (c *traceConn) Rollback() error {
	c.events = append(c.events, "rollback")
	return nil
}

func (c *traceConn) count(event string) int {
	n := 0
	for _, e := range c.events {
		if e == event {
			n++
		}
	}
	return n
}

func noSleep() (func(time.Duration), *[]time.Duration) {
	var slept []time.Duration
	return func(d time.Duration) { slept = append(slept, d) }, &slept
}

func TestRun_NilConnection(t *testing.T) {
	t.Parallel()

	err := Run(nil, Config{}, func() error { return nil })
	require.ErrorIs(t, err, sdk.ErrNoConnection)
}

func TestRun_CommitsOnSuccess(t *testing.T) {
	t.Parallel()

	c := &traceConn{}
	err := Run(c, Config{}, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, []string{"rollback", "commit"}, c.events)
}

func TestRun_RetriesConflictThenSucceeds(t *testing.T) {
	t.Parallel()

	sleep, slept := noSleep()
	c := &traceConn{}

	attempts := 0
	err := Run(c, Config{MaxRetries: 3, RetryDelay: 10 * time.Millisecond, Sleep: sleep}, func() error {
		attempts++
		if attempts <= 2 {
			return errors.New("ERROR: could not serialize access due to concurrent update")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts, "unit of work should run three times")
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept,
		"backoff should double per attempt")
	require.Equal(t, 1, c.count("commit"))
}

func TestRun_RetriesExhausted(t *testing.T) {
	t.Parallel()

	sleep, slept := noSleep()
	c := &traceConn{}

	attempts := 0
	conflict := errors.New("deadlock detected")
	err := Run(c, Config{MaxRetries: 3, RetryDelay: time.Millisecond, Sleep: sleep}, func() error {
		attempts++
		return conflict
	})

	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.ErrorIs(t, err, conflict, "the last conflict must be wrapped")
	require.Equal(t, 4, attempts, "one initial attempt plus three retries")
	require.Len(t, *slept, 3)

	// Every attempt starts with a clean-state rollback and ends with a
	// failure rollback.
	require.Equal(t, 8, c.count("rollback"))
	require.Zero(t, c.count("commit"))
}

func TestRun_NonRetryableFailsImmediately(t *testing.T) {
	t.Parallel()

	sleep, slept := noSleep()
	c := &traceConn{}

	boom := errors.New("syntax error at or near SELECT")
	attempts := 0
	err := Run(c, Config{Sleep: sleep}, func() error {
		attempts++
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrRetriesExhausted)
	require.Equal(t, 1, attempts, "no retries for non-conflict failures")
	require.Empty(t, *slept)
	require.Equal(t, 2, c.count("rollback"), "reset plus failure rollback")
}

func TestRun_CommitConflictIsRetried(t *testing.T) {
	t.Parallel()

	sleep, _ := noSleep()
	c := &traceConn{commitErr: errors.New("could not serialize access")}

	attempts := 0
	err := Run(c, Config{MaxRetries: 1, Sleep: sleep}, func() error {
		attempts++
		return nil
	})

	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.Equal(t, 2, attempts, "commit conflicts re-run the unit of work")
}

func TestRun_NegativeMaxRetriesDisablesRetry(t *testing.T) {
	t.Parallel()

	sleep, slept := noSleep()
	c := &traceConn{}

	attempts := 0
	err := Run(c, Config{MaxRetries: -1, Sleep: sleep}, func() error {
		attempts++
		return errors.New("deadlock detected")
	})

	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.Equal(t, 1, attempts)
	require.Empty(t, *slept)
}

func TestRetryable_Classification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msg  string
		want bool
	}{
		{"ERROR: serialization failure", true},
		{"deadlock detected", true},
		{"cannot execute INSERT in a read-only transaction", true},
		{"could not serialize access due to read/write dependencies", true},
		{"Could Not Serialize", true},
		{"syntax error", false},
		{"connection refused", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Retryable(errors.New(tc.msg)), "message %q", tc.msg)
	}
	require.False(t, Retryable(nil))
}

func TestSavepoint_ReleasedOnSuccess(t *testing.T) {
	t.Parallel()

	c := &traceConn{}
	err := Savepoint(c, "sp1", func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, []string{"exec:SAVEPOINT sp1", "exec:RELEASE SAVEPOINT sp1"}, c.events)
}

func TestSavepoint_RollsBackAndPropagatesOriginalError(t *testing.T) {
	t.Parallel()

	c := &traceConn{}
	boom := errors.New("constraint violation")
	err := Savepoint(c, "sp1", func() error { return boom })

	require.Same(t, boom, err, "the original failure must propagate unchanged")
	require.Equal(t, []string{"exec:SAVEPOINT sp1", "exec:ROLLBACK TO SAVEPOINT sp1"}, c.events)
	require.Zero(t, c.count("rollback"), "the enclosing transaction stays open")
	require.Zero(t, c.count("commit"))
}

func TestSavepoint_DefaultName(t *testing.T) {
	t.Parallel()

	c := &traceConn{}
	require.NoError(t, Savepoint(c, "", func() error { return nil }))
	require.Equal(t, "exec:SAVEPOINT sp", c.events[0])
}

func TestSavepoint_InvalidName(t *testing.T) {
	t.Parallel()

	c := &traceConn{}
	err := Savepoint(c, "sp1; DROP TABLE users", func() error { return nil })
	require.ErrorIs(t, err, ErrInvalidSavepoint)
	require.Empty(t, c.events, "nothing may be executed for an invalid name")
}

func TestSavepoint_NilConnection(t *testing.T) {
	t.Parallel()

	err := Savepoint(nil, "sp", func() error { return nil })
	require.ErrorIs(t, err, sdk.ErrNoConnection)
}

func TestRunReadOnly_SetsReadOnlyBeforeWork(t *testing.T) {
	t.Parallel()

	c := &traceConn{}
	ran := false
	err := RunReadOnly(c, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, []string{"rollback", "exec:SET TRANSACTION READ ONLY", "commit"}, c.events)
}

func TestRunReadOnly_NoRetryOnConflict(t *testing.T) {
	t.Parallel()

	c := &traceConn{}
	attempts := 0
	conflict := errors.New("deadlock detected")
	err := RunReadOnly(c, func() error {
		attempts++
		return conflict
	})

	require.ErrorIs(t, err, conflict)
	require.Equal(t, 1, attempts, "read-only scopes carry no retry wrapping")
	require.Equal(t, 2, c.count("rollback"))
}

func TestRunReadOnly_NilConnection(t *testing.T) {
	t.Parallel()

	err := RunReadOnly(nil, func() error { return nil })
	require.ErrorIs(t, err, sdk.ErrNoConnection)
}
