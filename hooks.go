package main

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// runHooks reads each SQL file, expands {{database}}, and executes every
// statement against the destination. Hook failures are fatal: hooks are
// operator-authored and a broken one means the run no longer matches intent.
func (o *Orchestrator) runHooks(ctx context.Context, files []string, phase string) error {
	if len(files) == 0 {
		return nil
	}
	emitInfo(o.em, "", "running %s hooks (%d files)", phase, len(files))

	dbName, err := o.src.ExtractDBName(o.cfg.Source.DSN)
	if err != nil {
		dbName = ""
	}

	for _, f := range files {
		path := o.cfg.resolvePath(f)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("hook %s: read %s: %w", phase, f, err)
		}

		sqlText := strings.ReplaceAll(string(data), "{{database}}", dbName)
		stmts := splitStatements(sqlText)

		emitInfo(o.em, "", "%s: %d statements", f, len(stmts))
		for i, stmt := range stmts {
			if _, err := o.dst.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("hook %s: %s: statement %d: %w", phase, f, i+1, err)
			}
		}
	}
	return nil
}

// splitStatements splits SQL text on semicolons, ignoring empty entries
// and content inside single-quoted strings.
func splitStatements(sql string) []string {
	var stmts []string
	var current strings.Builder
	inQuote := false

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' && !inQuote:
			inQuote = true
			current.WriteByte(c)
		case c == '\'' && inQuote:
			// Handle escaped quotes ('')
			if i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte(c)
				current.WriteByte(c)
				i++
			} else {
				inQuote = false
				current.WriteByte(c)
			}
		case c == ';' && !inQuote:
			s := strings.TrimSpace(current.String())
			if s != "" {
				stmts = append(stmts, s)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	// Trailing statement without semicolon
	if s := strings.TrimSpace(current.String()); s != "" {
		stmts = append(stmts, s)
	}

	return stmts
}
