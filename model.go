package main

// Column represents a single column read from the source catalog.
type Column struct {
	Name       string
	SourceType string // lowercased source type name, e.g. "integer", "character varying"
	Nullable   bool
	Default    *string
	OrdinalPos int
	IsIdentity bool // auto-increment / identity / serial
}

// ForeignKey represents a single-column foreign key constraint.
// Composite foreign keys are reported by the introspectors as skipped.
type ForeignKey struct {
	Name       string
	Column     string
	RefTable   string
	RefColumn  string
	UpdateRule string // normalized against fkRules before attachment
	DeleteRule string
}

// Index represents a single-column secondary index. SkipReason is set by the
// introspectors for indexes that cannot be replicated (composite, partial,
// expression key-parts).
type Index struct {
	Name       string
	Column     string
	Unique     bool
	SkipReason string
}

// Table holds the full introspected definition of one source table.
// PrimaryKey is derived by resolvePrimaryKey, not read from the catalog.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  string
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Schema holds all introspected tables for a source database.
type Schema struct {
	Tables []Table
}

// tableState tracks per-table pipeline progress. A table only advances when
// the current stage has run to completion; it never reverts.
type tableState string

const (
	statePending     tableState = "pending"
	stateCreated     tableState = "created"
	stateTransferred tableState = "data-transferred"
	stateConstrained tableState = "constrained"
	stateIndexed     tableState = "indexed"
	stateFailed      tableState = "failed"
)
