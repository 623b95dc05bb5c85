package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Options struct {
	Dialect Dialect
	// Schema is the namespace to introspect: "public" for Postgres,
	// "main" for DuckDB. Empty picks the dialect default.
	Schema string
}

// Describe enumerates every base table visible in the configured namespace,
// with column types, primary-key markers, and foreign-key edges. Any failure
// is fatal to the caller; the agent cannot operate without schema grounding.
func Describe(ctx context.Context, db *sql.DB, opts Options) (Description, error) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = DialectPostgres
	}
	namespace := opts.Schema
	if namespace == "" {
		if dialect == DialectDuckDB {
			namespace = "main"
		} else {
			namespace = "public"
		}
	}

	tables, err := listTables(ctx, db, dialect, namespace)
	if err != nil {
		return Description{}, fmt.Errorf("list tables: %w", err)
	}

	description := Description{Tables: make([]Table, 0, len(tables))}
	for _, name := range tables {
		table, err := describeTable(ctx, db, dialect, namespace, name)
		if err != nil {
			return Description{}, fmt.Errorf("describe table %s: %w", name, err)
		}
		description.Tables = append(description.Tables, table)
	}
	return description, nil
}

func listTables(ctx context.Context, db *sql.DB, dialect Dialect, namespace string) ([]string, error) {
	query := `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`
	if dialect == DialectDuckDB {
		query = strings.ReplaceAll(query, "$1", "?")
	}

	rows, err := db.QueryContext(ctx, query, namespace)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func describeTable(ctx context.Context, db *sql.DB, dialect Dialect, namespace, tableName string) (Table, error) {
	columns, err := listColumns(ctx, db, dialect, namespace, tableName)
	if err != nil {
		return Table{}, fmt.Errorf("columns: %w", err)
	}

	var pkColumns map[string]bool
	var foreignKeys []ForeignKey
	switch dialect {
	case DialectDuckDB:
		pkColumns, err = duckdbPrimaryKey(ctx, db, namespace, tableName)
		if err != nil {
			return Table{}, fmt.Errorf("primary key: %w", err)
		}
		foreignKeys, err = duckdbForeignKeys(ctx, db, namespace, tableName)
		if err != nil {
			return Table{}, fmt.Errorf("foreign keys: %w", err)
		}
	default:
		pkColumns, err = postgresPrimaryKey(ctx, db, namespace, tableName)
		if err != nil {
			return Table{}, fmt.Errorf("primary key: %w", err)
		}
		foreignKeys, err = postgresForeignKeys(ctx, db, namespace, tableName)
		if err != nil {
			return Table{}, fmt.Errorf("foreign keys: %w", err)
		}
	}

	for i := range columns {
		columns[i].PrimaryKey = pkColumns[columns[i].Name]
	}
	return Table{Name: tableName, Columns: columns, ForeignKeys: foreignKeys}, nil
}

func listColumns(ctx context.Context, db *sql.DB, dialect Dialect, namespace, tableName string) ([]Column, error) {
	query := `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`
	if dialect == DialectDuckDB {
		query = strings.NewReplacer("$1", "?", "$2", "?").Replace(query)
	}

	rows, err := db.QueryContext(ctx, query, namespace, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func postgresPrimaryKey(ctx context.Context, db *sql.DB, namespace, tableName string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
SELECT ku.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage ku
  ON tc.constraint_name = ku.constraint_name
 AND tc.table_schema = ku.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = $1 AND tc.table_name = $2
ORDER BY ku.ordinal_position`, namespace, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	pk := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		pk[name] = true
	}
	return pk, rows.Err()
}

// postgresForeignKeys pairs local and referenced columns through
// referential_constraints so composite keys keep their column alignment;
// joining constraint_column_usage by name alone yields a cross product.
func postgresForeignKeys(ctx context.Context, db *sql.DB, namespace, tableName string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, `
SELECT rc.constraint_name, ku.column_name, ref.table_name, ref.column_name
FROM information_schema.referential_constraints rc
JOIN information_schema.key_column_usage ku
  ON ku.constraint_schema = rc.constraint_schema
 AND ku.constraint_name = rc.constraint_name
JOIN information_schema.key_column_usage ref
  ON ref.constraint_schema = rc.unique_constraint_schema
 AND ref.constraint_name = rc.unique_constraint_name
 AND ref.ordinal_position = ku.position_in_unique_constraint
WHERE ku.table_schema = $1 AND ku.table_name = $2
ORDER BY rc.constraint_name, ku.ordinal_position`, namespace, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []ForeignKey
	index := map[string]int{}
	for rows.Next() {
		var constraint, column, refTable, refColumn string
		if err := rows.Scan(&constraint, &column, &refTable, &refColumn); err != nil {
			return nil, err
		}
		i, ok := index[constraint]
		if !ok {
			i = len(keys)
			index[constraint] = i
			keys = append(keys, ForeignKey{RefTable: refTable})
		}
		keys[i].Columns = append(keys[i].Columns, column)
		keys[i].RefColumns = append(keys[i].RefColumns, refColumn)
	}
	return keys, rows.Err()
}

func duckdbPrimaryKey(ctx context.Context, db *sql.DB, namespace, tableName string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
SELECT constraint_column_names::VARCHAR
FROM duckdb_constraints()
WHERE schema_name = ? AND table_name = ? AND constraint_type = 'PRIMARY KEY'`, namespace, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	pk := map[string]bool{}
	for rows.Next() {
		var names string
		if err := rows.Scan(&names); err != nil {
			return nil, err
		}
		for _, name := range parseListLiteral(names) {
			pk[name] = true
		}
	}
	return pk, rows.Err()
}

func duckdbForeignKeys(ctx context.Context, db *sql.DB, namespace, tableName string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, `
SELECT constraint_column_names::VARCHAR, referenced_table, referenced_column_names::VARCHAR
FROM duckdb_constraints()
WHERE schema_name = ? AND table_name = ? AND constraint_type = 'FOREIGN KEY'`, namespace, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []ForeignKey
	for rows.Next() {
		var columns, refTable, refColumns string
		if err := rows.Scan(&columns, &refTable, &refColumns); err != nil {
			return nil, err
		}
		keys = append(keys, ForeignKey{
			Columns:    parseListLiteral(columns),
			RefTable:   refTable,
			RefColumns: parseListLiteral(refColumns),
		})
	}
	return keys, rows.Err()
}

// parseListLiteral splits DuckDB's rendered list form, e.g. "[a, b]".
func parseListLiteral(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}
