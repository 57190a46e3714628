package main

import (
	"context"
	"database/sql"
	"fmt"
)

// indexName derives a deterministic destination index name from the source
// identifiers.
func indexName(table string, idx Index) string {
	return fmt.Sprintf("%s_%s", table, idx.Name)
}

// replicateIndex creates one secondary index on the destination. Already
// existing indexes are left alone; a missing secondary index is never fatal
// to the migrated data, callers log and move on.
func replicateIndex(ctx context.Context, dst *sql.DB, table string, idx Index) error {
	name := indexName(table, idx)
	exists, err := destIndexExists(ctx, dst, table, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	q := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, myIdent(name), myIdent(table), myIdent(idx.Column))
	if _, err := dst.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// collectIndexWarnings lists source indexes that cannot be replicated, so the
// operator sees them before the run starts.
func collectIndexWarnings(schema *Schema) []string {
	var warnings []string
	for _, t := range schema.Tables {
		for _, idx := range t.Indexes {
			if idx.SkipReason != "" {
				warnings = append(warnings, fmt.Sprintf("%s.%s: %s", t.Name, idx.Name, idx.SkipReason))
			}
		}
	}
	return warnings
}
