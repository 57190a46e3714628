package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "myferry [config.toml]",
	Short: "PostgreSQL/SQLite to MySQL migration tool",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigration,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to migration TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMigration(cmd *cobra.Command, args []string) error {
	// Resolve config path: positional arg takes precedence over --config flag
	cfgPath := configPath
	if len(args) > 0 {
		cfgPath = args[0]
	}
	if cfgPath == "" {
		return fmt.Errorf("config file required: myferry <config.toml> or myferry --config <config.toml>")
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	start := time.Now()

	log.Printf("myferry: %s to MySQL migration", cfg.Source.Type)
	log.Printf("config: batch_size=%d engine=%s charset=%s collation=%s preserve_defaults=%t audit=%t",
		cfg.BatchSize, cfg.Target.Engine, cfg.Target.Charset, cfg.Target.Collation,
		cfg.PreserveDefaults, cfg.Audit.Enabled)

	src, err := newSourceDB(cfg.Source.Type)
	if err != nil {
		return err
	}

	log.Printf("connecting to %s...", src.Name())
	srcDB, err := src.OpenDB(cfg.Source.DSN)
	if err != nil {
		return err
	}
	defer srcDB.Close()
	if err := srcDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", src.Name(), err)
	}

	dbName, err := src.ExtractDBName(cfg.Source.DSN)
	if err != nil {
		return err
	}
	log.Printf("migrating %s database '%s'", src.Name(), dbName)

	log.Printf("connecting to MySQL...")
	dsn, err := mysqlDSNWithWriteOptions(cfg.Target.DSN, cfg.Target)
	if err != nil {
		return err
	}
	dst, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer dst.Close()
	if err := dst.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}

	orch := newOrchestrator(src, srcDB, dst, cfg, consoleEmitter{})
	report, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("migration aborted: %w", err)
	}

	log.Print(report.Summary())
	if cfg.ReportPath != "" {
		if err := report.WriteFile(cfg.resolvePath(cfg.ReportPath)); err != nil {
			return err
		}
		log.Printf("report written to %s", cfg.ReportPath)
	}

	log.Printf("migration completed in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
