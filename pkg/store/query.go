package store

import (
	"fmt"
	"strings"

	commonerrors "github.com/scorchlab/litpipe/pkg/common/errors"
)

// QueryResult holds the outcome of one executed query along with the query
// text so callers can audit what was actually run.
type QueryResult struct {
	SQL     string
	Columns []string
	Rows    [][]string
}

// Execute runs a query and stringifies the result rows. A failing query is
// reported together with its text; no retry.
func (s *Store) Execute(query string) (*QueryResult, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commonerrors.ErrQueryFailed, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commonerrors.ErrQueryFailed, err)
	}

	result := &QueryResult{SQL: query, Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %v", commonerrors.ErrQueryFailed, err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = stringify(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", commonerrors.ErrQueryFailed, err)
	}
	return result, nil
}

// TableColumn is one column of one table, as reported by the database.
type TableColumn struct {
	Table  string
	Column string
	Type   string
}

// DescribeSchema returns the live table/column inventory from DuckDB's
// information_schema. The query assistant feeds this to the model verbatim.
func (s *Store) DescribeSchema() ([]TableColumn, error) {
	rows, err := s.db.Query(`
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'main'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to describe schema: %v", commonerrors.ErrStoreAccess, err)
	}
	defer rows.Close()

	var out []TableColumn
	for rows.Next() {
		var tc TableColumn
		if err := rows.Scan(&tc.Table, &tc.Column, &tc.Type); err != nil {
			return nil, fmt.Errorf("%w: failed to scan schema row: %v", commonerrors.ErrStoreAccess, err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: schema scan failed: %v", commonerrors.ErrStoreAccess, err)
	}
	return out, nil
}

// FormatSchema renders the column inventory in the table-by-table layout the
// NL-to-SQL prompt expects.
func FormatSchema(cols []TableColumn) string {
	var sb strings.Builder
	sb.WriteString("Database Schema:\n")
	current := ""
	for _, tc := range cols {
		if tc.Table != current {
			current = tc.Table
			sb.WriteString(fmt.Sprintf("\nTable: %s\n", current))
		}
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", tc.Column, tc.Type))
	}
	return sb.String()
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
