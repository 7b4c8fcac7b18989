package storage

import (
	"context"
	"fmt"
	"strings"
)

// QueryRaw runs a read-only query against the archive and returns the column
// names and every row rendered as text. BLOB columns are summarised by size.
//
// The query runs on a dedicated connection with query_only set, inside a
// transaction that is always rolled back.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	q := strings.TrimSuffix(strings.TrimSpace(query), ";")
	verb := strings.ToUpper(strings.Fields(q + " x")[0])
	if verb != "SELECT" && verb != "WITH" && verb != "PRAGMA" {
		return nil, nil, fmt.Errorf("only SELECT, WITH and PRAGMA queries are allowed")
	}
	if strings.Contains(q, ";") {
		return nil, nil, fmt.Errorf("only a single statement is allowed")
	}
	if verb == "PRAGMA" && strings.Contains(q, "=") {
		return nil, nil, fmt.Errorf("PRAGMA assignments are not allowed")
	}

	ctx := context.Background()
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, nil, fmt.Errorf("set query_only: %w", err)
	}
	defer conn.ExecContext(ctx, "PRAGMA query_only = OFF")

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				rec[i] = "NULL"
			case []byte:
				rec[i] = fmt.Sprintf("<%d bytes>", len(v))
			default:
				rec[i] = fmt.Sprint(v)
			}
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}
