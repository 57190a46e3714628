package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// MigrationConfig holds the full TOML-driven migration configuration.
type MigrationConfig struct {
	Source           SourceConfig `toml:"source"`
	Target           TargetConfig `toml:"target"`
	BatchSize        int          `toml:"batch_size"`
	PreserveDefaults bool         `toml:"preserve_defaults"`
	ReportPath       string       `toml:"report_path"`
	Hooks            HooksConfig  `toml:"hooks"`
	Audit            AuditConfig  `toml:"audit"`

	// configDir is the directory containing the TOML file, used to resolve
	// relative hook-file paths.
	configDir string
}

// SourceConfig identifies the source database engine and connection string.
type SourceConfig struct {
	Type   string `toml:"type"`   // "postgres" or "sqlite"
	DSN    string `toml:"dsn"`
	Schema string `toml:"schema"` // PostgreSQL schema to migrate (default: "public")
}

// TargetConfig identifies the MySQL destination and its table options.
type TargetConfig struct {
	DSN       string `toml:"dsn"`
	Engine    string `toml:"engine"`    // storage engine for created tables
	Charset   string `toml:"charset"`   // default character set
	Collation string `toml:"collation"` // default collation
}

// HooksConfig lists SQL files executed against the destination between stages.
type HooksConfig struct {
	BeforeData        []string `toml:"before_data"`
	AfterData         []string `toml:"after_data"`
	BeforeConstraints []string `toml:"before_constraints"`
	AfterAll          []string `toml:"after_all"`
}

// AuditConfig controls the optional append-only change log installed on
// migrated tables after the pipeline completes.
type AuditConfig struct {
	Enabled bool   `toml:"enabled"`
	Table   string `toml:"table"`
}

const defaultBatchSize = 100

// loadConfig reads a TOML config file and returns a MigrationConfig with
// defaults applied.
func loadConfig(path string) (*MigrationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := MigrationConfig{
		BatchSize:        defaultBatchSize,
		PreserveDefaults: true,
		Target: TargetConfig{
			Engine:    "InnoDB",
			Charset:   "utf8mb4",
			Collation: "utf8mb4_unicode_ci",
		},
		Audit: AuditConfig{Table: "_audit_log"},
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *MigrationConfig) validate() error {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}

	if c.Source.Type == "" {
		return fmt.Errorf("source.type is required (must be postgres or sqlite)")
	}
	if _, err := newSourceDB(c.Source.Type); err != nil {
		return err
	}
	if c.Source.DSN == "" {
		return fmt.Errorf("source.dsn is required")
	}
	if c.Source.Schema == "" {
		c.Source.Schema = "public"
	}
	if c.Source.Type == "sqlite" && c.Source.Schema != "public" {
		return fmt.Errorf("source.schema is a postgres-only option")
	}

	if c.Target.DSN == "" {
		return fmt.Errorf("target.dsn is required")
	}

	if c.Audit.Enabled && c.Audit.Table == "" {
		return fmt.Errorf("audit.table is required when audit.enabled is set")
	}
	return nil
}

// resolvePath resolves a path relative to the config file directory.
func (c *MigrationConfig) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}
