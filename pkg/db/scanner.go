package db

import (
	"context"
	"database/sql"
	"fmt"
)

// rowScanner is implemented by the record types so one helper can load
// any of them.
type rowScanner interface {
	Scan(rows *sql.Rows) error
}

// record constrains PT to a pointer to T that knows how to scan itself.
type record[T any] interface {
	*T
	rowScanner
}

// selectAll runs query and scans every row. op names the operation in
// error messages ("list targets").
func selectAll[T any, PT record[T]](ctx context.Context, conn *sql.DB, op, query string, args ...any) ([]*T, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		item := PT(new(T))
		if err := item.Scan(rows); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, (*T)(item))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

// selectOne is selectAll for lookups expected to hit a single row.
// No rows yields ErrNotFound wrapped with what.
func selectOne[T any, PT record[T]](ctx context.Context, conn *sql.DB, what, query string, args ...any) (*T, error) {
	items, err := selectAll[T, PT](ctx, conn, "load "+what, query, args...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return items[0], nil
}
