package store

import (
	"context"
	"fmt"
	"iter"

	"github.com/roach88/rdql/internal/querysql"
)

// Row is one result row of a compiled statement.
type Row struct {
	Columns []querysql.Column
	Values  []any
}

// Get returns the value of the column labelled key, matching either the
// column key ("c.tmp:P") or its mangled form ("c__tmp__P").
func (r Row) Get(key string) (any, bool) {
	for i, c := range r.Columns {
		if c.Key == key || c.Mangled == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row keyed by column key.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c.Key] = r.Values[i]
	}
	return m
}

// Count returns the number of rows stmt selects.
//
// The count SQL runs without its range clause; the total n is then reduced
// to max(0, n-offset) and capped at the limit.
func (s *Store) Count(ctx context.Context, stmt *querysql.Statement) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, stmt.CountWithoutRange()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if stmt.Offset != nil {
		n = max(0, n-*stmt.Offset)
	}
	if stmt.Limit != nil {
		n = min(*stmt.Limit, n)
	}
	return n, nil
}

// Rows returns the rows stmt selects.
//
// The sequence is restartable: each range over it runs the select again.
// A query or scan failure is yielded once as the error and ends the
// iteration.
func (s *Store) Rows(ctx context.Context, stmt *querysql.Statement) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := s.db.QueryContext(ctx, stmt.Select)
		if err != nil {
			yield(Row{}, fmt.Errorf("query rows: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			row, err := scanRow(rows.Scan, stmt.Columns)
			if err != nil {
				yield(Row{}, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Row{}, fmt.Errorf("iterate rows: %w", err))
		}
	}
}

// Collect runs stmt and returns all of its rows.
func (s *Store) Collect(ctx context.Context, stmt *querysql.Statement) ([]Row, error) {
	out := []Row{}
	for row, err := range s.Rows(ctx, stmt) {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// scanRow reads one row and decodes each value by the literal table of the
// range of its column's source predicate.
func scanRow(scan func(dest ...any) error, columns []querysql.Column) (Row, error) {
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := scan(dest...); err != nil {
		return Row{}, fmt.Errorf("scan row: %w", err)
	}

	values := make([]any, len(columns))
	for i, c := range columns {
		table := ""
		if c.Source != nil && c.Source.Range != nil {
			table = c.Source.Range.Table
		}
		v, err := unmarshalLiteral(table, raw[i])
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", c.Key, err)
		}
		values[i] = v
	}
	return Row{Columns: columns, Values: values}, nil
}
