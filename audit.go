package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// auditStage installs an append-only change log on the destination: one
// shadow table plus AFTER INSERT/UPDATE/DELETE row triggers per migrated
// table, capturing old and new row images as JSON. Failures here are logged
// and skipped; the migrated data is already complete.
func (o *Orchestrator) auditStage(ctx context.Context, order []string, byName map[string]Table) error {
	if err := createAuditTable(ctx, o.dst, o.cfg.Audit.Table); err != nil {
		if isConnectivityErr(err) {
			return err
		}
		emitError(o.em, "", "audit table: %v", err)
		return nil
	}

	for _, name := range order {
		if o.report.State(name) == stateFailed {
			continue
		}
		if err := createAuditTriggers(ctx, o.dst, o.cfg.Audit.Table, byName[name]); err != nil {
			if isConnectivityErr(err) {
				return err
			}
			emitWarn(o.em, name, "audit triggers: %v", err)
		}
	}
	return nil
}

func createAuditTable(ctx context.Context, dst *sql.DB, auditTable string) error {
	if _, err := dst.ExecContext(ctx, auditTableSQL(auditTable)); err != nil {
		return fmt.Errorf("create %s: %w", auditTable, err)
	}
	return nil
}

func auditTableSQL(auditTable string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  `+"`id`"+` bigint NOT NULL AUTO_INCREMENT,
  `+"`table_name`"+` varchar(255) NOT NULL,
  `+"`action`"+` varchar(6) NOT NULL,
  `+"`row_old`"+` json,
  `+"`row_new`"+` json,
  `+"`changed_at`"+` datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (`+"`id`"+`)
)`, myIdent(auditTable))
}

// createAuditTriggers installs the three row triggers for one table. Each
// trigger body is a single INSERT so no client-side delimiter handling is
// needed.
func createAuditTriggers(ctx context.Context, dst *sql.DB, auditTable string, t Table) error {
	oldImage := rowImage(t.Columns, "OLD")
	newImage := rowImage(t.Columns, "NEW")

	triggers := []struct {
		suffix string
		event  string
		values string
	}{
		{"ai", "INSERT", fmt.Sprintf("'INSERT', NULL, %s", newImage)},
		{"au", "UPDATE", fmt.Sprintf("'UPDATE', %s, %s", oldImage, newImage)},
		{"ad", "DELETE", fmt.Sprintf("'DELETE', %s, NULL", oldImage)},
	}

	for _, tr := range triggers {
		name := fmt.Sprintf("aud_%s_%s", t.Name, tr.suffix)
		drop := fmt.Sprintf("DROP TRIGGER IF EXISTS %s", myIdent(name))
		if _, err := dst.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("drop trigger %s: %w", name, err)
		}
		q := auditTriggerSQL(name, tr.event, t.Name, auditTable, tr.values)
		if _, err := dst.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create trigger %s: %w", name, err)
		}
	}
	return nil
}

func auditTriggerSQL(name, event, table, auditTable, values string) string {
	return fmt.Sprintf(
		"CREATE TRIGGER %s AFTER %s ON %s FOR EACH ROW INSERT INTO %s (`table_name`, `action`, `row_old`, `row_new`) VALUES ('%s', %s)",
		myIdent(name), event, myIdent(table), myIdent(auditTable),
		strings.ReplaceAll(table, "'", "''"), values)
}

// rowImage renders a JSON_OBJECT expression over all columns of the OLD or
// NEW row reference.
func rowImage(cols []Column, ref string) string {
	parts := make([]string, 0, len(cols)*2)
	for _, c := range cols {
		parts = append(parts, fmt.Sprintf("'%s'", c.Name), fmt.Sprintf("%s.%s", ref, myIdent(c.Name)))
	}
	return fmt.Sprintf("JSON_OBJECT(%s)", strings.Join(parts, ", "))
}
