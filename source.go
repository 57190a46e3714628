package main

import (
	"database/sql"
	"fmt"
	"strings"
)

// SourceDB abstracts source database operations so myferry can support
// multiple source engines (PostgreSQL, SQLite, etc.). The introspection
// operations return immutable descriptors; the exact catalog SQL is
// engine-specific.
type SourceDB interface {
	// Name returns a human-readable name for the source ("PostgreSQL", "SQLite").
	Name() string

	// OpenDB opens a read-oriented database connection.
	OpenDB(dsn string) (*sql.DB, error)

	// ExtractDBName extracts a logical database name from the DSN (for logging).
	ExtractDBName(dsn string) (string, error)

	// ListTables returns the base table names of the source schema.
	ListTables(db *sql.DB, schema string) ([]string, error)

	// TableColumns returns the column descriptors of a table in ordinal order.
	TableColumns(db *sql.DB, schema, table string) ([]Column, error)

	// TableForeignKeys returns the single-column foreign keys of a table.
	TableForeignKeys(db *sql.DB, schema, table string) ([]ForeignKey, error)

	// TableIndexes returns the non-primary-key indexes of a table.
	TableIndexes(db *sql.DB, schema, table string) ([]Index, error)

	// QuoteIdentifier quotes a source identifier for use in queries.
	QuoteIdentifier(name string) string

	// QualifiedTable returns the schema-qualified, quoted table reference.
	// SQLite has no schemas and ignores the schema argument.
	QualifiedTable(schema, table string) string
}

// newSourceDB returns a SourceDB implementation for the given source type.
func newSourceDB(sourceType string) (SourceDB, error) {
	switch sourceType {
	case "postgres":
		return &postgresSourceDB{}, nil
	case "sqlite":
		return &sqliteSourceDB{}, nil
	default:
		return nil, fmt.Errorf("unsupported source type %q (must be postgres or sqlite)", sourceType)
	}
}

// buildSelectPage renders the offset-cursor page query for one table.
// Rows are ordered by the resolved primary key so that a fixed offset walk is
// deterministic. Offset pagination assumes the source table is not mutated
// concurrently; concurrent writes can skip or duplicate rows.
func buildSelectPage(src SourceDB, schema string, t Table, limit, offset int) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = src.QuoteIdentifier(c.Name)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d OFFSET %d",
		strings.Join(cols, ", "),
		src.QualifiedTable(schema, t.Name),
		src.QuoteIdentifier(t.PrimaryKey),
		limit, offset,
	)
}

// buildCountRows renders the row-count query used for transfer progress totals.
func buildCountRows(src SourceDB, schema string, t Table) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", src.QualifiedTable(schema, t.Name))
}
