package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pipelineFixture seeds a small source library database. The tables carry
// text primary keys so the generated DDL runs on the SQLite destination used
// by the tests.
func pipelineFixture(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	stmts := []string{
		`CREATE TABLE authors (code TEXT NOT NULL PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE books (isbn TEXT NOT NULL PRIMARY KEY, title TEXT, in_print BOOLEAN NOT NULL)`,
		`INSERT INTO authors VALUES ('kng', 'Kingsley')`,
		`INSERT INTO authors VALUES ('lev', 'Levin')`,
		`INSERT INTO books VALUES ('978-1', 'First', 'yes')`,
		`INSERT INTO books VALUES ('978-2', '', 'no')`,
		`INSERT INTO books VALUES ('978-3', 'Third', 1)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	return db
}

func pipelineConfig(t *testing.T) *MigrationConfig {
	t.Helper()
	return &MigrationConfig{
		Source:           SourceConfig{Type: "sqlite", DSN: "library.db", Schema: "public"},
		BatchSize:        10,
		PreserveDefaults: true,
		configDir:        t.TempDir(),
	}
}

func TestOrchestratorRun_FullPipeline(t *testing.T) {
	srcDB := pipelineFixture(t)
	dst := openTestDB(t)

	cfg := pipelineConfig(t)
	hook := filepath.Join(cfg.configDir, "after.sql")
	hookSQL := "CREATE TABLE {{database}}_hook_marker (note TEXT);\n" +
		"INSERT INTO library_hook_marker (note) VALUES ('done');\n"
	if err := os.WriteFile(hook, []byte(hookSQL), 0o644); err != nil {
		t.Fatalf("write hook: %v", err)
	}
	cfg.Hooks.AfterAll = []string{"after.sql"}

	o := newOrchestrator(&sqliteSourceDB{}, srcDB, dst, cfg, &captureEmitter{})
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Finished.IsZero() {
		t.Error("report must record a finish time")
	}

	for _, table := range []string{"authors", "books"} {
		if got := report.State(table); got != stateIndexed {
			t.Errorf("%s state = %s, want %s", table, got, stateIndexed)
		}
	}
	if s := report.Summary(); strings.Contains(s, "partial success") {
		t.Errorf("clean run flagged as partial:\n%s", s)
	}

	var n int
	if err := dst.QueryRow("SELECT COUNT(*) FROM authors").Scan(&n); err != nil || n != 2 {
		t.Errorf("authors count = %d (%v), want 2", n, err)
	}
	if err := dst.QueryRow("SELECT COUNT(*) FROM books").Scan(&n); err != nil || n != 3 {
		t.Errorf("books count = %d (%v), want 3", n, err)
	}

	// sanitization applied during transfer: truthy text becomes 1, the empty
	// nullable title becomes NULL
	var inPrint int
	var title sql.NullString
	if err := dst.QueryRow("SELECT in_print, title FROM books WHERE isbn = '978-1'").Scan(&inPrint, &title); err != nil {
		t.Fatalf("read 978-1: %v", err)
	}
	if inPrint != 1 {
		t.Errorf("978-1 in_print = %d, want 1", inPrint)
	}
	if err := dst.QueryRow("SELECT in_print, title FROM books WHERE isbn = '978-2'").Scan(&inPrint, &title); err != nil {
		t.Fatalf("read 978-2: %v", err)
	}
	if inPrint != 0 {
		t.Errorf("978-2 in_print = %d, want 0", inPrint)
	}
	if title.Valid {
		t.Errorf("978-2 title = %q, want NULL", title.String)
	}

	// the after_all hook ran with {{database}} expanded
	if err := dst.QueryRow("SELECT COUNT(*) FROM library_hook_marker").Scan(&n); err != nil || n != 1 {
		t.Errorf("hook marker count = %d (%v), want 1", n, err)
	}
}

func TestOrchestratorRun_PageFailureIsPartialNotFatal(t *testing.T) {
	srcDB := pipelineFixture(t)
	dst := openTestDB(t)

	// authors already exists in the destination with a narrower shape, so the
	// idempotent create is a no-op and every insert page rolls back
	if _, err := dst.Exec("CREATE TABLE authors (code TEXT NOT NULL PRIMARY KEY)"); err != nil {
		t.Fatalf("pre-create authors: %v", err)
	}

	o := newOrchestrator(&sqliteSourceDB{}, srcDB, dst, pipelineConfig(t), &captureEmitter{})
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("page failures must not be fatal: %v", err)
	}

	// the table still walks the remaining stages; the failed pages surface in
	// the report
	if got := report.State("authors"); got != stateIndexed {
		t.Errorf("authors state = %s, want %s", got, stateIndexed)
	}
	if got := report.State("books"); got != stateIndexed {
		t.Errorf("books state = %s, want %s", got, stateIndexed)
	}
	if report.FailedCount() == 0 {
		t.Error("rolled-back pages must count as a failure")
	}
	s := report.Summary()
	if !strings.Contains(s, "partial success") {
		t.Errorf("summary must flag partial success:\n%s", s)
	}
	if !strings.Contains(s, "rolled back") {
		t.Errorf("summary must mention rolled-back pages:\n%s", s)
	}

	var n int
	if err := dst.QueryRow("SELECT COUNT(*) FROM authors").Scan(&n); err != nil || n != 0 {
		t.Errorf("authors count = %d (%v), want 0", n, err)
	}
	if err := dst.QueryRow("SELECT COUNT(*) FROM books").Scan(&n); err != nil || n != 3 {
		t.Errorf("books count = %d (%v), want 3", n, err)
	}
}

func TestOrchestratorRun_CanceledContextIsFatal(t *testing.T) {
	srcDB := pipelineFixture(t)
	dst := openTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(&sqliteSourceDB{}, srcDB, dst, pipelineConfig(t), &captureEmitter{})
	if _, err := o.Run(ctx); err == nil {
		t.Fatal("canceled context must abort the run")
	}
}
