// Package executor runs candidate SQL against the database and renders the
// outcome as display-ready text. Engine failures never escape as panics or
// driver faults; they come back as *ExecError values whose message is fed to
// the next generation attempt.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// EmptyResultText is the explicit marker for a valid query with zero rows.
const EmptyResultText = "No data found."

// ExecError carries the engine's failure message verbatim. The agent does
// not parse or classify it; it only forwards it as feedback.
type ExecError struct {
	Message string
}

func (e *ExecError) Error() string {
	return e.Message
}

type Result struct {
	Columns []string
	Rows    [][]string
	// Rendered is a markdown table for non-empty results, or EmptyResultText.
	Rendered string
	Empty    bool
}

type Executor struct {
	db *sql.DB
}

func New(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs a single read-only statement. Statements other than
// SELECT/WITH are rejected before reaching the engine; the rejection is an
// ordinary ExecError so the generation loop can correct course.
func (e *Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	if !isReadOnlyStatement(sqlText) {
		return Result{}, &ExecError{Message: "only read-only SELECT or WITH statements are allowed"}
	}

	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, &ExecError{Message: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, &ExecError{Message: err.Error()}
	}

	var records [][]string
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return Result{}, &ExecError{Message: err.Error()}
		}
		record := make([]string, len(columns))
		for i, value := range values {
			record[i] = formatValue(value)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return Result{}, &ExecError{Message: err.Error()}
	}

	if len(records) == 0 {
		return Result{Columns: columns, Rendered: EmptyResultText, Empty: true}, nil
	}
	return Result{
		Columns:  columns,
		Rows:     records,
		Rendered: renderMarkdown(columns, records),
	}, nil
}

func isReadOnlyStatement(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return false
	}
	return strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with")
}

func renderMarkdown(columns []string, records [][]string) string {
	t := table.NewWriter()
	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, record := range records {
		row := make(table.Row, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	return t.RenderMarkdown()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
