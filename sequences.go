package main

import (
	"context"
	"database/sql"
	"fmt"
)

// alignAutoIncrement advances the destination AUTO_INCREMENT counter of an
// identity primary key past the highest transferred value, so inserts after
// the migration do not collide with migrated rows.
func alignAutoIncrement(ctx context.Context, dst *sql.DB, t Table) error {
	var identity *Column
	for i := range t.Columns {
		if t.Columns[i].IsIdentity && t.Columns[i].Name == t.PrimaryKey {
			identity = &t.Columns[i]
			break
		}
	}
	if identity == nil {
		return nil
	}

	var max sql.NullInt64
	q := fmt.Sprintf("SELECT MAX(%s) FROM %s", myIdent(identity.Name), myIdent(t.Name))
	if err := dst.QueryRowContext(ctx, q).Scan(&max); err != nil {
		return fmt.Errorf("max %s.%s: %w", t.Name, identity.Name, err)
	}
	if !max.Valid {
		return nil
	}

	q = fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", myIdent(t.Name), max.Int64+1)
	if _, err := dst.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("align auto_increment for %s: %w", t.Name, err)
	}
	return nil
}
