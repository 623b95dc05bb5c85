package schema

import (
	"context"
	"database/sql"
	"reflect"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

const (
	tablesQuery = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`
	columnsQuery = `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`
	primaryKeyQuery = `
SELECT ku.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage ku
  ON tc.constraint_name = ku.constraint_name
 AND tc.table_schema = ku.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = $1 AND tc.table_name = $2
ORDER BY ku.ordinal_position`
	foreignKeysQuery = `
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
ORDER BY rc.constraint_name, ku.ordinal_position`
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectStoreSchema(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(tablesQuery)).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("customers").
			AddRow("orders"))

	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("customer_id", "uuid").
			AddRow("name", "text").
			AddRow("state", "character varying"))
	mock.ExpectQuery(regexp.QuoteMeta(primaryKeyQuery)).
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("customer_id"))
	mock.ExpectQuery(regexp.QuoteMeta(foreignKeysQuery)).
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "column_name", "table_name", "column_name"}))

	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("order_id", "uuid").
			AddRow("customer_id", "uuid").
			AddRow("total", "numeric"))
	mock.ExpectQuery(regexp.QuoteMeta(primaryKeyQuery)).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("order_id"))
	mock.ExpectQuery(regexp.QuoteMeta(foreignKeysQuery)).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "column_name", "table_name", "column_name"}).
			AddRow("orders_customer_id_fkey", "customer_id", "customers", "customer_id"))
}

func TestDescribePostgres(t *testing.T) {
	db, mock := newSQLMock(t)
	expectStoreSchema(mock)

	got, err := Describe(context.Background(), db, Options{Dialect: DialectPostgres})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	want := Description{Tables: []Table{
		{
			Name: "customers",
			Columns: []Column{
				{Name: "customer_id", Type: "uuid", PrimaryKey: true},
				{Name: "name", Type: "text"},
				{Name: "state", Type: "character varying"},
			},
		},
		{
			Name: "orders",
			Columns: []Column{
				{Name: "order_id", Type: "uuid", PrimaryKey: true},
				{Name: "customer_id", Type: "uuid"},
				{Name: "total", Type: "numeric"},
			},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"customer_id"}},
			},
		},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Describe() = %#v, want %#v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDescribePostgresCompositeForeignKey(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(tablesQuery)).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("order_items"))
	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("public", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("order_id", "uuid").
			AddRow("product_id", "uuid").
			AddRow("quantity", "integer"))
	mock.ExpectQuery(regexp.QuoteMeta(primaryKeyQuery)).
		WithArgs("public", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("order_id").
			AddRow("product_id"))
	// One row per local column, referenced column matched by position.
	mock.ExpectQuery(regexp.QuoteMeta(foreignKeysQuery)).
		WithArgs("public", "order_items").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "column_name", "table_name", "column_name"}).
			AddRow("order_items_order_fkey", "order_id", "order_lines", "order_id").
			AddRow("order_items_order_fkey", "product_id", "order_lines", "product_id"))

	got, err := Describe(context.Background(), db, Options{Dialect: DialectPostgres})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := []ForeignKey{{
		Columns:    []string{"order_id", "product_id"},
		RefTable:   "order_lines",
		RefColumns: []string{"order_id", "product_id"},
	}}
	if !reflect.DeepEqual(got.Tables[0].ForeignKeys, want) {
		t.Fatalf("ForeignKeys = %#v, want %#v", got.Tables[0].ForeignKeys, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDescribeIsIdempotentForUnchangedSchema(t *testing.T) {
	db, mock := newSQLMock(t)
	expectStoreSchema(mock)
	expectStoreSchema(mock)

	first, err := Describe(context.Background(), db, Options{Dialect: DialectPostgres})
	if err != nil {
		t.Fatalf("first Describe() error = %v", err)
	}
	second, err := Describe(context.Background(), db, Options{Dialect: DialectPostgres})
	if err != nil {
		t.Fatalf("second Describe() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Describe() not idempotent for unchanged schema")
	}
	if first.Render() != second.Render() {
		t.Fatal("Render() differs for identical descriptions")
	}
}

func TestDescribeIntrospectionFailureIsFatal(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(tablesQuery)).
		WithArgs("public").
		WillReturnError(sql.ErrConnDone)

	_, err := Describe(context.Background(), db, Options{Dialect: DialectPostgres})
	if err == nil {
		t.Fatal("expected error from failed introspection")
	}
}

func TestParseListLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"[customer_id]", []string{"customer_id"}},
		{"[order_id, product_id]", []string{"order_id", "product_id"}},
		{"[]", nil},
		{"['quoted']", []string{"quoted"}},
	}
	for _, tt := range tests {
		got := parseListLiteral(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseListLiteral(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
