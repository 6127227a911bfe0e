package cursor

import sdk "github.com/wormhole-project/sdk"

// Query executes a statement and returns all rows as column to value
// mappings.
func Query(cfg Config, sqlText string, args ...any) ([]map[string]any, error) {
	cur, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if _, err := cur.Execute(sqlText, args...); err != nil {
		return nil, err
	}
	return cur.FetchAllMap(), nil
}

// QuerySingle executes a statement and returns the first row as a mapping,
// or nil when there are no rows.
func QuerySingle(cfg Config, sqlText string, args ...any) (map[string]any, error) {
	cur, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if _, err := cur.Execute(sqlText, args...); err != nil {
		return nil, err
	}
	return cur.FetchOneMap(), nil
}

// QueryValue executes a statement and returns the first column of the first
// row, or nil when there are no rows.
func QueryValue(cfg Config, sqlText string, args ...any) (any, error) {
	cur, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if _, err := cur.Execute(sqlText, args...); err != nil {
		return nil, err
	}
	row := cur.FetchOne()
	if len(row) == 0 {
		return nil, nil
	}
	return row[0], nil
}

// Exec executes a statement that returns no rows and reports the number of
// rows affected. In engine mode the engine-reported count is used.
func Exec(cfg Config, sqlText string, args ...any) (int64, error) {
	cur, err := New(cfg)
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	if cur.runtime.Mode == sdk.ModeEngine {
		res, err := cur.engine.Query(ToNumbered(sqlText), args...)
		if err != nil {
			return 0, err
		}
		return int64(res.NRows), nil
	}
	return cur.conn.Exec(ToSequential(sqlText), args...)
}
