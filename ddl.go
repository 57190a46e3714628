package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// resolvePrimaryKey picks the primary-key column for a table: the first
// identity-flagged column in ordinal order, falling back to the first column
// when no identity column exists.
func resolvePrimaryKey(cols []Column) string {
	if len(cols) == 0 {
		return ""
	}
	for _, c := range cols {
		if c.IsIdentity {
			return c.Name
		}
	}
	return cols[0].Name
}

// generateCreateTable produces an idempotent CREATE TABLE statement for the
// destination. Re-running it against an existing table is a no-op.
func generateCreateTable(t Table, target TargetConfig, preserveDefaults bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", myIdent(t.Name))

	for _, col := range t.Columns {
		destType := mapColumnType(col)
		fmt.Fprintf(&b, "  %s %s", myIdent(col.Name), destType)

		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
		if preserveDefaults {
			if expr := mapDefault(col, destType); expr != "" {
				fmt.Fprintf(&b, " DEFAULT %s", expr)
			}
		}
		// only the primary key carries the auto-increment marker; MySQL
		// requires an auto-increment column to be a key
		if col.IsIdentity && col.Name == t.PrimaryKey {
			b.WriteString(" AUTO_INCREMENT")
		}
		b.WriteString(",\n")
	}

	fmt.Fprintf(&b, "  PRIMARY KEY (%s)\n)", myIdent(t.PrimaryKey))

	if target.Engine != "" {
		fmt.Fprintf(&b, " ENGINE=%s", target.Engine)
	}
	if target.Charset != "" {
		fmt.Fprintf(&b, " DEFAULT CHARSET=%s", target.Charset)
	}
	if target.Collation != "" {
		fmt.Fprintf(&b, " COLLATE=%s", target.Collation)
	}
	return b.String()
}

// mapDefault translates a source default expression into a destination
// DEFAULT clause. Expression defaults that do not translate are dropped.
func mapDefault(col Column, destType string) string {
	if col.Default == nil {
		return ""
	}
	raw := strings.TrimSpace(*col.Default)
	if raw == "" || strings.EqualFold(raw, "null") {
		return ""
	}

	// strip postgres type casts, e.g. 'active'::text
	if idx := castIndex(raw); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}

	upper := strings.ToUpper(raw)
	switch upper {
	case "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP()", "NOW()":
		if destType == "datetime" {
			return "CURRENT_TIMESTAMP"
		}
		return ""
	case "TRUE":
		return "1"
	case "FALSE":
		return "0"
	}

	unquoted := raw
	quoted := false
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		unquoted = strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
		quoted = true
	}

	switch {
	case isBooleanKind(destType):
		if truthy(unquoted) {
			return "1"
		}
		return "0"
	case isNumericKind(destType):
		if _, err := strconv.ParseFloat(unquoted, 64); err != nil {
			return ""
		}
		return unquoted
	case destType == "longtext", destType == "json", destType == "longblob":
		// TEXT/BLOB/JSON columns cannot carry literal defaults in MySQL
		return ""
	case quoted:
		return "'" + strings.ReplaceAll(unquoted, "'", "''") + "'"
	default:
		return ""
	}
}

// castIndex returns the position of a trailing ::type cast. A leading quoted
// literal is skipped first, so a "::" inside the literal is never mistaken
// for the cast.
func castIndex(s string) int {
	start := 0
	if len(s) > 0 && s[0] == '\'' {
		i := 1
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i += 2
					continue
				}
				break
			}
			i++
		}
		if i >= len(s) {
			// unterminated literal, nothing to strip
			return -1
		}
		start = i + 1
	}
	idx := strings.Index(s[start:], "::")
	if idx < 0 {
		return -1
	}
	return start + idx
}

// buildTable executes the create statement for one table.
func buildTable(ctx context.Context, dst *sql.DB, t Table, target TargetConfig, preserveDefaults bool) error {
	ddl := generateCreateTable(t, target, preserveDefaults)
	if _, err := dst.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", t.Name, err)
	}
	return nil
}
