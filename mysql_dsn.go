package main

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// mysqlDSNWithWriteOptions normalizes the destination DSN: values are bound
// as parameters, times are handled in UTC, and the configured charset and
// collation are applied to the connection.
func mysqlDSNWithWriteOptions(baseDSN string, target TargetConfig) (string, error) {
	cfg, err := mysql.ParseDSN(baseDSN)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	if target.Charset != "" {
		cfg.Params["charset"] = target.Charset
	}
	if target.Collation != "" {
		cfg.Collation = target.Collation
	}
	return cfg.FormatDSN(), nil
}
