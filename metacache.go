package main

import (
	"database/sql"
	"fmt"
)

// runCache memoizes catalog metadata for the duration of one run. It is owned
// by the orchestrator and passed into introspection calls; its lifetime ends
// at run completion.
type runCache struct {
	tables  []string
	columns map[string][]Column
	fks     map[string][]ForeignKey
	indexes map[string][]Index
}

func newRunCache() *runCache {
	return &runCache{
		columns: make(map[string][]Column),
		fks:     make(map[string][]ForeignKey),
		indexes: make(map[string][]Index),
	}
}

// listTables fetches and caches the source table name set.
func (c *runCache) listTables(src SourceDB, db *sql.DB, schema string) ([]string, error) {
	if c.tables != nil {
		return c.tables, nil
	}
	tables, err := src.ListTables(db, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	c.tables = tables
	return tables, nil
}

// introspectTable assembles a fully resolved table descriptor: all columns,
// foreign keys, indexes, and the derived primary key.
func (c *runCache) introspectTable(src SourceDB, db *sql.DB, schema, name string) (Table, error) {
	t := Table{Name: name}

	cols, ok := c.columns[name]
	if !ok {
		var err error
		cols, err = src.TableColumns(db, schema, name)
		if err != nil {
			return t, fmt.Errorf("introspect columns for %s: %w", name, err)
		}
		c.columns[name] = cols
	}
	if len(cols) == 0 {
		return t, fmt.Errorf("table %s has no columns", name)
	}
	t.Columns = cols
	t.PrimaryKey = resolvePrimaryKey(cols)

	fks, ok := c.fks[name]
	if !ok {
		var err error
		fks, err = src.TableForeignKeys(db, schema, name)
		if err != nil {
			return t, fmt.Errorf("introspect foreign keys for %s: %w", name, err)
		}
		c.fks[name] = fks
	}
	t.ForeignKeys = fks

	indexes, ok := c.indexes[name]
	if !ok {
		var err error
		indexes, err = src.TableIndexes(db, schema, name)
		if err != nil {
			return t, fmt.Errorf("introspect indexes for %s: %w", name, err)
		}
		c.indexes[name] = indexes
	}
	t.Indexes = indexes

	return t, nil
}
