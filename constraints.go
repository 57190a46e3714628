package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// fkRules is the fixed set of referential actions the destination accepts.
var fkRules = map[string]bool{
	"NO ACTION":   true,
	"CASCADE":     true,
	"SET NULL":    true,
	"RESTRICT":    true,
	"SET DEFAULT": true,
}

// normalizeRule maps a source referential action onto the fixed rule set.
// Unrecognized values normalize to NO ACTION with a warning, never an error.
func normalizeRule(rule, table string, em Emitter) string {
	r := strings.ToUpper(strings.TrimSpace(rule))
	if r == "" {
		return "NO ACTION"
	}
	if fkRules[r] {
		return r
	}
	emitWarn(em, table, "unrecognized referential rule %q normalized to NO ACTION", rule)
	return "NO ACTION"
}

// attachForeignKey verifies the referenced side exists, ensures it is
// indexed, and attaches one foreign key with normalized rules. Attachment
// runs after every table has been created and populated, so constraints whose
// ordering was deferred past a cycle break succeed here.
func attachForeignKey(ctx context.Context, dst *sql.DB, table string, fk ForeignKey, em Emitter) error {
	exists, err := destColumnExists(ctx, dst, fk.RefTable, fk.RefColumn)
	if err != nil {
		return fmt.Errorf("check referenced column %s.%s: %w", fk.RefTable, fk.RefColumn, err)
	}
	if !exists {
		emitWarn(em, table, "skipping %s: referenced column %s.%s does not exist in destination",
			fk.Name, fk.RefTable, fk.RefColumn)
		return nil
	}

	// referential constraints need an index on the referenced side
	if err := ensureReferencedIndex(ctx, dst, fk.RefTable, fk.RefColumn, em); err != nil {
		return err
	}

	attached, err := destConstraintExists(ctx, dst, table, fk.Name)
	if err != nil {
		return fmt.Errorf("check constraint %s: %w", fk.Name, err)
	}
	if attached {
		return nil
	}

	q := fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE %s ON DELETE %s",
		myIdent(table), myIdent(fk.Name), myIdent(fk.Column),
		myIdent(fk.RefTable), myIdent(fk.RefColumn),
		normalizeRule(fk.UpdateRule, table, em),
		normalizeRule(fk.DeleteRule, table, em),
	)
	if _, err := dst.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("attach %s: %w", fk.Name, err)
	}
	return nil
}

// ensureReferencedIndex creates an index on the referenced column if none
// starts with it.
func ensureReferencedIndex(ctx context.Context, dst *sql.DB, table, column string, em Emitter) error {
	indexed, err := destColumnIndexed(ctx, dst, table, column)
	if err != nil {
		return fmt.Errorf("check index on %s.%s: %w", table, column, err)
	}
	if indexed {
		return nil
	}
	name := fmt.Sprintf("idx_%s_%s", table, column)
	emitInfo(em, table, "creating index %s on referenced column %s.%s", name, table, column)
	q := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", myIdent(name), myIdent(table), myIdent(column))
	if _, err := dst.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// --- destination catalog checks ---

func destTableExists(ctx context.Context, dst *sql.DB, table string) (bool, error) {
	var n int
	err := dst.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = DATABASE() AND table_name = ?`,
		table,
	).Scan(&n)
	return n > 0, err
}

func destColumnExists(ctx context.Context, dst *sql.DB, table, column string) (bool, error) {
	var n int
	err := dst.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.columns
		 WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`,
		table, column,
	).Scan(&n)
	return n > 0, err
}

// destColumnIndexed reports whether any destination index leads with the
// column (primary keys included).
func destColumnIndexed(ctx context.Context, dst *sql.DB, table, column string) (bool, error) {
	var n int
	err := dst.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.statistics
		 WHERE table_schema = DATABASE() AND table_name = ?
		   AND column_name = ? AND seq_in_index = 1`,
		table, column,
	).Scan(&n)
	return n > 0, err
}

func destConstraintExists(ctx context.Context, dst *sql.DB, table, name string) (bool, error) {
	var n int
	err := dst.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.table_constraints
		 WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = ?`,
		table, name,
	).Scan(&n)
	return n > 0, err
}

func destIndexExists(ctx context.Context, dst *sql.DB, table, name string) (bool, error) {
	var n int
	err := dst.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.statistics
		 WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`,
		table, name,
	).Scan(&n)
	return n > 0, err
}
