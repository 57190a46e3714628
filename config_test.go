package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migration.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
[source]
type = "postgres"
dsn = "postgres://app@localhost:5432/app"

[target]
dsn = "app:secret@tcp(localhost:3306)/app"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want default 100", cfg.BatchSize)
	}
	if cfg.Target.Engine != "InnoDB" {
		t.Errorf("Engine = %q, want InnoDB", cfg.Target.Engine)
	}
	if cfg.Target.Charset != "utf8mb4" {
		t.Errorf("Charset = %q, want utf8mb4", cfg.Target.Charset)
	}
	if cfg.Target.Collation != "utf8mb4_unicode_ci" {
		t.Errorf("Collation = %q", cfg.Target.Collation)
	}
	if !cfg.PreserveDefaults {
		t.Error("PreserveDefaults must default to true")
	}
	if cfg.Source.Schema != "public" {
		t.Errorf("Schema = %q, want public", cfg.Source.Schema)
	}
	if cfg.Audit.Enabled {
		t.Error("audit must default to off")
	}
	if cfg.Audit.Table != "_audit_log" {
		t.Errorf("Audit.Table = %q", cfg.Audit.Table)
	}
}

func TestLoadConfig_UnknownKeysRejected(t *testing.T) {
	path := writeConfig(t, `
batch_sizes = 200

[source]
type = "postgres"
dsn = "postgres://app@localhost/app"

[target]
dsn = "app@tcp(localhost)/app"
`)
	_, err := loadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "unknown config keys") {
		t.Fatalf("expected unknown-key error, got %v", err)
	}
}

func TestLoadConfig_SourceValidation(t *testing.T) {
	cases := []struct {
		name string
		toml string
		want string
	}{
		{
			"missing type",
			"[source]\ndsn = \"x\"\n\n[target]\ndsn = \"y\"\n",
			"source.type is required",
		},
		{
			"bad type",
			"[source]\ntype = \"oracle\"\ndsn = \"x\"\n\n[target]\ndsn = \"y\"\n",
			"unsupported source type",
		},
		{
			"missing source dsn",
			"[source]\ntype = \"postgres\"\n\n[target]\ndsn = \"y\"\n",
			"source.dsn is required",
		},
		{
			"missing target dsn",
			"[source]\ntype = \"postgres\"\ndsn = \"x\"\n",
			"target.dsn is required",
		},
		{
			"schema is postgres-only",
			"[source]\ntype = \"sqlite\"\ndsn = \"x\"\nschema = \"app\"\n\n[target]\ndsn = \"y\"\n",
			"postgres-only",
		},
	}
	for _, c := range cases {
		path := writeConfig(t, c.toml)
		_, err := loadConfig(path)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: expected error containing %q, got %v", c.name, c.want, err)
		}
	}
}

func TestLoadConfig_NegativeBatchSizeFallsBack(t *testing.T) {
	path := writeConfig(t, `
batch_size = -5

[source]
type = "sqlite"
dsn = "app.db"

[target]
dsn = "app@tcp(localhost)/app"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want fallback 100", cfg.BatchSize)
	}
}

func TestResolvePath(t *testing.T) {
	path := writeConfig(t, `
[source]
type = "sqlite"
dsn = "app.db"

[target]
dsn = "app@tcp(localhost)/app"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	got := cfg.resolvePath("hooks/cleanup.sql")
	if got != filepath.Join(filepath.Dir(path), "hooks/cleanup.sql") {
		t.Errorf("resolvePath = %q", got)
	}
	if abs := cfg.resolvePath("/etc/hooks.sql"); abs != "/etc/hooks.sql" {
		t.Errorf("absolute paths must pass through, got %q", abs)
	}
}
