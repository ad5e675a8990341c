package database

import (
	"database/sql"
	"fmt"
)

// RowScanner is the subset of *sql.Rows used to read generic rows.
type RowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
}

// ScanRow reads the current row into a fresh slice. Byte slices are
// converted to strings since drivers return text columns that way.
func ScanRow(rows RowScanner, width int) ([]any, error) {
	values := make([]any, width)
	ptrs := make([]any, width)

	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}

	return values, nil
}

var _ RowScanner = (*sql.Rows)(nil)
