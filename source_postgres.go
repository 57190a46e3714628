package main

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

type postgresSourceDB struct{}

func (p *postgresSourceDB) Name() string { return "PostgreSQL" }

func (p *postgresSourceDB) OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (p *postgresSourceDB) ExtractDBName(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse postgres dsn: %w", err)
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			return "", fmt.Errorf("cannot extract database name from DSN: empty name")
		}
		return name, nil
	}
	// key=value form
	for _, field := range strings.Fields(dsn) {
		if v, ok := strings.CutPrefix(field, "dbname="); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("cannot extract database name from DSN")
}

func (p *postgresSourceDB) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (p *postgresSourceDB) QualifiedTable(schema, table string) string {
	return p.QuoteIdentifier(schema) + "." + p.QuoteIdentifier(table)
}

func (p *postgresSourceDB) ListTables(db *sql.DB, schema string) ([]string, error) {
	rows, err := db.Query(
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`,
		schema,
	)
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

func (p *postgresSourceDB) TableColumns(db *sql.DB, schema, table string) ([]Column, error) {
	rows, err := db.Query(
		`SELECT column_name, data_type, is_nullable, column_default, ordinal_position, is_identity
		 FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2
		 ORDER BY ordinal_position`,
		schema, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable, identity string
		var dflt sql.NullString
		if err := rows.Scan(&c.Name, &c.SourceType, &nullable, &dflt, &c.OrdinalPos, &identity); err != nil {
			return nil, err
		}
		c.SourceType = strings.ToLower(c.SourceType)
		c.Nullable = nullable == "YES"
		c.IsIdentity = identity == "YES"
		if dflt.Valid {
			// serial columns surface as a nextval() default rather than
			// is_identity = YES
			if strings.HasPrefix(dflt.String, "nextval(") {
				c.IsIdentity = true
			} else {
				c.Default = &dflt.String
			}
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (p *postgresSourceDB) TableForeignKeys(db *sql.DB, schema, table string) ([]ForeignKey, error) {
	rows, err := db.Query(
		`SELECT tc.constraint_name, kcu.column_name,
		        ccu.table_name, ccu.column_name,
		        rc.update_rule, rc.delete_rule
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		   ON kcu.constraint_name = tc.constraint_name
		   AND kcu.table_schema = tc.table_schema
		 JOIN information_schema.referential_constraints rc
		   ON rc.constraint_name = tc.constraint_name
		   AND rc.constraint_schema = tc.table_schema
		 JOIN information_schema.constraint_column_usage ccu
		   ON ccu.constraint_name = tc.constraint_name
		   AND ccu.table_schema = tc.table_schema
		 WHERE tc.constraint_type = 'FOREIGN KEY'
		   AND tc.table_schema = $1 AND tc.table_name = $2
		 ORDER BY tc.constraint_name, kcu.ordinal_position`,
		schema, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fkMap := make(map[string][]ForeignKey)
	var fkOrder []string
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn, &fk.UpdateRule, &fk.DeleteRule); err != nil {
			return nil, err
		}
		if _, ok := fkMap[fk.Name]; !ok {
			fkOrder = append(fkOrder, fk.Name)
		}
		fkMap[fk.Name] = append(fkMap[fk.Name], fk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []ForeignKey
	for _, name := range fkOrder {
		group := fkMap[name]
		if len(group) > 1 {
			// composite foreign keys are not representable as single-column
			// descriptors; the constraint stage reports them skipped
			continue
		}
		fks = append(fks, group[0])
	}
	return fks, nil
}

func (p *postgresSourceDB) TableIndexes(db *sql.DB, schema, table string) ([]Index, error) {
	rows, err := db.Query(
		`SELECT i.relname, a.attname, ix.indisunique,
		        ix.indnkeyatts, ix.indpred IS NOT NULL
		 FROM pg_index ix
		 JOIN pg_class t ON t.oid = ix.indrelid
		 JOIN pg_class i ON i.oid = ix.indexrelid
		 JOIN pg_namespace n ON n.oid = t.relnamespace
		 LEFT JOIN pg_attribute a
		   ON a.attrelid = t.oid AND a.attnum = ix.indkey[0]
		 WHERE n.nspname = $1 AND t.relname = $2 AND NOT ix.indisprimary
		 ORDER BY i.relname`,
		schema, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var col sql.NullString
		var keyCols int
		var partial bool
		if err := rows.Scan(&idx.Name, &col, &idx.Unique, &keyCols, &partial); err != nil {
			return nil, err
		}
		switch {
		case !col.Valid:
			idx.SkipReason = "expression index key-parts are not supported"
		case keyCols > 1:
			idx.Column = col.String
			idx.SkipReason = "composite indexes are not supported"
		case partial:
			idx.Column = col.String
			idx.SkipReason = "partial indexes (WHERE clause) are not supported"
		default:
			idx.Column = col.String
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
