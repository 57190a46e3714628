package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// transferResult summarizes one table's data transfer.
type transferResult struct {
	RowsCopied  int64
	PagesFailed int
}

// transferTable copies all rows of one table from the source to the
// destination in bounded batches. Each page is read with an offset cursor and
// committed in its own destination transaction; a row failure rolls back that
// page only and the transfer continues with the next page. Offset pagination
// assumes the source is quiesced for the duration of the table's transfer.
func transferTable(ctx context.Context, src SourceDB, srcDB *sql.DB, dst *sql.DB, schema string, t Table, batchSize int, em Emitter) (transferResult, error) {
	var res transferResult

	var total int64
	if err := srcDB.QueryRowContext(ctx, buildCountRows(src, schema, t)).Scan(&total); err != nil {
		return res, fmt.Errorf("count rows for %s: %w", t.Name, err)
	}

	insertSQL := buildInsert(t)

	for offset := 0; ; offset += batchSize {
		page, err := readPage(ctx, src, srcDB, schema, t, batchSize, offset)
		if err != nil {
			return res, fmt.Errorf("read page at offset %d for %s: %w", offset, t.Name, err)
		}
		if len(page) == 0 {
			break
		}

		if err := writePage(ctx, dst, insertSQL, page, t.Columns); err != nil {
			if isConnectivityErr(err) {
				return res, err
			}
			res.PagesFailed++
			emitError(em, t.Name, "page at offset %d rolled back: %v", offset, err)
		} else {
			res.RowsCopied += int64(len(page))
		}

		em.Progress(ProgressEvent{Stage: "transfer", Table: t.Name, Current: int64(offset + len(page)), Total: total})

		if len(page) < batchSize {
			break
		}
	}
	return res, nil
}

// readPage fetches one page of sanitized rows from the source.
func readPage(ctx context.Context, src SourceDB, srcDB *sql.DB, schema string, t Table, limit, offset int) ([][]any, error) {
	rows, err := srcDB.QueryContext(ctx, buildSelectPage(src, schema, t, limit, offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var page [][]any
	for rows.Next() {
		vals := make([]any, len(t.Columns))
		ptrs := make([]any, len(t.Columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		page = append(page, sanitizeRow(vals, t.Columns))
	}
	return page, rows.Err()
}

// writePage inserts one page of rows inside a single destination transaction.
// The transaction commits only after every row has been inserted; any row
// failure rolls back the whole page, leaving previously committed pages
// intact.
func writePage(ctx context.Context, dst *sql.DB, insertSQL string, page [][]any, cols []Column) error {
	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, row := range page {
		if _, err := tx.ExecContext(ctx, insertSQL, row...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// buildInsert renders the parameterized destination insert for one table.
func buildInsert(t Table) string {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = myIdent(c.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		myIdent(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
}
