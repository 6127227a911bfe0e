package engine

import (
	"errors"
	"testing"

	sdk "github.com/wormhole-project/sdk"
	"github.com/wormhole-project/sdk/conn"
)

// replayConn feeds canned single-value replies to the SQL client and records
// what was asked of it.
type replayConn struct {
	queries []string
	args    [][]any
	replies []any
	err     error
}

func (r *replayConn) Query(query string, args ...any) (*conn.Result, error) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.replies) == 0 {
		return &conn.Result{}, nil
	}
	reply := r.replies[0]
	r.replies = r.replies[1:]
	return &conn.Result{
		Columns: []string{"wormhole"},
		Rows:    [][]any{{reply}},
	}, nil
}

func (r *replayConn) Exec(string, ...any) (int64, error) { return 0, nil }
func (r *replayConn) Commit() error                      { return nil }
func (r *replayConn) Rollback() error                    { return nil }

func TestNewSQLClient_NilConnection(t *testing.T) {
	t.Parallel()

	if _, err := NewSQLClient(nil); !errors.Is(err, sdk.ErrNoConnection) {
		t.Fatalf("expected ErrNoConnection, got %v", err)
	}
}

func TestSQLClient_Install(t *testing.T) {
	t.Parallel()

	rc := &replayConn{replies: []any{`{"func_id":"fn-9","cached":false}`}}
	client, err := NewSQLClient(rc)
	if err != nil {
		t.Fatalf("NewSQLClient returned error: %v", err)
	}

	got, err := client.Install("add", "return a + b", `{"args":[]}`)
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	if got.FuncID != "fn-9" || got.Cached {
		t.Fatalf("unexpected install result: %+v", got)
	}
	if rc.queries[0] != sqlInstall {
		t.Fatalf("unexpected install statement: %q", rc.queries[0])
	}
	wantArgs := []any{"add", "return a + b", `{"args":[]}`}
	for i, a := range wantArgs {
		if rc.args[0][i] != a {
			t.Fatalf("unexpected install args: %v", rc.args[0])
		}
	}
}

func TestSQLClient_Invoke(t *testing.T) {
	t.Parallel()

	// Engine replies may arrive as driver byte slices.
	rc := &replayConn{replies: []any{[]byte(`{"success":true,"result":"ok"}`)}}
	client, err := NewSQLClient(rc)
	if err != nil {
		t.Fatalf("NewSQLClient returned error: %v", err)
	}

	got, err := client.Invoke("fn-9", `{"a":1}`)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if !got.Success || got.Result != "ok" {
		t.Fatalf("unexpected invoke result: %+v", got)
	}
	if rc.queries[0] != sqlInvoke {
		t.Fatalf("unexpected invoke statement: %q", rc.queries[0])
	}
}

func TestSQLClient_EmptyReply(t *testing.T) {
	t.Parallel()

	client, err := NewSQLClient(&replayConn{})
	if err != nil {
		t.Fatalf("NewSQLClient returned error: %v", err)
	}

	if _, err := client.Install("add", "return 1", "{}"); !errors.Is(err, sdk.ErrHostResponseInvalid) {
		t.Fatalf("expected ErrHostResponseInvalid, got %v", err)
	}
}

func TestSQLClient_DriverErrorUnmodified(t *testing.T) {
	t.Parallel()

	boom := errors.New("could not serialize access due to concurrent update")
	client, err := NewSQLClient(&replayConn{err: boom})
	if err != nil {
		t.Fatalf("NewSQLClient returned error: %v", err)
	}

	if _, err := client.Invoke("fn-9", "{}"); !errors.Is(err, boom) {
		t.Fatalf("driver error should propagate unmodified, got %v", err)
	}
}
