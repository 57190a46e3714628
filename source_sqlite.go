package main

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type sqliteSourceDB struct{}

func (s *sqliteSourceDB) Name() string { return "SQLite" }

func (s *sqliteSourceDB) OpenDB(dsn string) (*sql.DB, error) {
	uri, err := sqliteReadOnlyURI(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *sqliteSourceDB) ExtractDBName(dsn string) (string, error) {
	path := dsn
	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err == nil {
			path = u.Path
			if path == "" {
				path = u.Opaque
			}
		} else {
			path = strings.TrimPrefix(dsn, "file:")
			if idx := strings.IndexByte(path, '?'); idx >= 0 {
				path = path[:idx]
			}
		}
	}
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" {
		return "sqlite", nil
	}
	return base, nil
}

func (s *sqliteSourceDB) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *sqliteSourceDB) QualifiedTable(_, table string) string {
	return s.QuoteIdentifier(table)
}

func (s *sqliteSourceDB) ListTables(db *sql.DB, _ string) ([]string, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

func (s *sqliteSourceDB) TableColumns(db *sql.DB, _, table string) ([]Column, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdentifier(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	var pkCols []int // indexes into cols with pk > 0
	for rows.Next() {
		var cid, notnull, pk int
		var name, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		col := Column{
			Name:       name,
			SourceType: strings.ToLower(normalizeDeclaredType(colType)),
			Nullable:   notnull == 0,
			OrdinalPos: cid + 1,
		}
		if dflt.Valid {
			col.Default = &dflt.String
		}
		if pk > 0 {
			pkCols = append(pkCols, len(cols))
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// A single INTEGER PRIMARY KEY column is a rowid alias and behaves as
	// auto-increment.
	if len(pkCols) == 1 {
		i := pkCols[0]
		if cols[i].SourceType == "integer" || cols[i].SourceType == "int" {
			cols[i].IsIdentity = true
		}
	}
	return cols, nil
}

// normalizeDeclaredType extracts the base type name from SQLite's flexible
// declared types, e.g. "VARCHAR(80)" becomes "VARCHAR".
func normalizeDeclaredType(declared string) string {
	dt := strings.TrimSpace(declared)
	if dt == "" {
		return "blob" // no declared type = BLOB affinity
	}
	if idx := strings.IndexByte(dt, '('); idx >= 0 {
		dt = dt[:idx]
	}
	return strings.TrimSpace(dt)
}

func (s *sqliteSourceDB) TableForeignKeys(db *sql.DB, _, table string) ([]ForeignKey, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%s)", s.QuoteIdentifier(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fkMap := make(map[int][]ForeignKey)
	var fkOrder []int
	for rows.Next() {
		var id, seq int
		var refTable, from, onUpdate, onDelete, match string
		var to sql.NullString
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk := ForeignKey{
			Name:       fmt.Sprintf("fk_%s_%d", table, id),
			Column:     from,
			RefTable:   refTable,
			RefColumn:  to.String, // empty means "the referenced PK"
			UpdateRule: onUpdate,
			DeleteRule: onDelete,
		}
		if _, ok := fkMap[id]; !ok {
			fkOrder = append(fkOrder, id)
		}
		fkMap[id] = append(fkMap[id], fk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []ForeignKey
	for _, id := range fkOrder {
		group := fkMap[id]
		if len(group) > 1 {
			// composite foreign key, not representable as a single-column
			// descriptor
			continue
		}
		fks = append(fks, group[0])
	}
	return fks, nil
}

func (s *sqliteSourceDB) TableIndexes(db *sql.DB, _, table string) ([]Index, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA index_list(%s)", s.QuoteIdentifier(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type listed struct {
		name    string
		unique  bool
		partial bool
	}
	var names []listed
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		// auto-generated PK indexes are handled via the primary-key policy
		if origin == "pk" {
			continue
		}
		names = append(names, listed{name: name, unique: unique == 1, partial: partial == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []Index
	for _, l := range names {
		idx := Index{Name: l.name, Unique: l.unique}
		if l.partial {
			idx.SkipReason = "partial indexes (WHERE clause) are not supported"
		}

		colRows, err := db.Query(fmt.Sprintf("PRAGMA index_info(%s)", s.QuoteIdentifier(l.name)))
		if err != nil {
			return nil, err
		}
		var cols []string
		expression := false
		for colRows.Next() {
			var seqno, cid int
			var colName sql.NullString
			if err := colRows.Scan(&seqno, &cid, &colName); err != nil {
				colRows.Close()
				return nil, err
			}
			if !colName.Valid {
				expression = true
				continue
			}
			cols = append(cols, colName.String)
		}
		colRows.Close()

		switch {
		case expression:
			idx.SkipReason = "expression index key-parts are not supported"
		case len(cols) > 1:
			idx.Column = cols[0]
			idx.SkipReason = "composite indexes are not supported"
		case len(cols) == 1:
			idx.Column = cols[0]
		default:
			idx.SkipReason = "index has no plain column key-parts"
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// sqliteReadOnlyURI forces read-only mode on a SQLite DSN.
func sqliteReadOnlyURI(dsn string) (string, error) {
	if dsn == ":memory:" || dsn == "file::memory:" || strings.Contains(dsn, "mode=memory") {
		return "", fmt.Errorf("in-memory SQLite databases are not supported (each sql.Open gets a separate DB)")
	}

	if !strings.HasPrefix(dsn, "file:") {
		return "file:" + dsn + "?mode=ro", nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse sqlite URI: %w", err)
	}
	q := u.Query()
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
