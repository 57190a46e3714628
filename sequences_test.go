package main

import (
	"context"
	"testing"
)

func TestAlignAutoIncrement_NoIdentityColumn(t *testing.T) {
	table := Table{
		Name:       "tags",
		Columns:    []Column{{Name: "slug", SourceType: "text", OrdinalPos: 1}},
		PrimaryKey: "slug",
	}
	if err := alignAutoIncrement(context.Background(), nil, table); err != nil {
		t.Errorf("tables without an identity key must be a no-op: %v", err)
	}
}

func TestAlignAutoIncrement_EmptyTable(t *testing.T) {
	dst := openTestDB(t)
	if _, err := dst.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	table := Table{
		Name:       "items",
		Columns:    []Column{{Name: "id", SourceType: "integer", IsIdentity: true, OrdinalPos: 1}},
		PrimaryKey: "id",
	}
	// MAX over an empty table is NULL, so no counter change is attempted
	if err := alignAutoIncrement(context.Background(), dst, table); err != nil {
		t.Errorf("empty table must be a no-op: %v", err)
	}
}
