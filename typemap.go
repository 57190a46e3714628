package main

import "strings"

// destTypes is the fixed source-type to MySQL-type lookup. Source names cover
// the PostgreSQL information_schema data_type vocabulary and SQLite declared
// types. Anything not listed falls back to longtext.
var destTypes = map[string]string{
	// integer widths
	"smallint": "smallint",
	"int2":     "smallint",
	"integer":  "int",
	"int":      "int",
	"int4":     "int",
	"bigint":   "bigint",
	"int8":     "bigint",

	// booleans become a 1-byte integer
	"boolean": "tinyint(1)",
	"bool":    "tinyint(1)",

	// floating point
	"real":             "float",
	"float":            "float",
	"double precision": "double",
	"double":           "double",

	// arbitrary-precision numerics narrow to a fixed precision; values with
	// more than 6 fractional digits lose precision (known, documented)
	"numeric": "decimal(20,6)",
	"decimal": "decimal(20,6)",

	// variable text gets a bounded string with a fixed default length; the
	// source catalog length is intentionally not carried over
	"character varying": "varchar(255)",
	"varchar":           "varchar(255)",
	"character":         "varchar(255)",
	"char":              "varchar(255)",

	"text": "longtext",
	"clob": "longtext",

	"uuid":  "char(36)",
	"json":  "json",
	"jsonb": "json",

	"date":                        "date",
	"time":                        "time",
	"time without time zone":      "time",
	"timestamp":                   "datetime",
	"datetime":                    "datetime",
	"timestamp without time zone": "datetime",
	"timestamp with time zone":    "datetime",
	"timestamptz":                 "datetime",

	"bytea": "longblob",
	"blob":  "longblob",
}

// mapColumnType returns the MySQL type for a source column. Unrecognized
// source types map to longtext as a safe fallback, never an error.
func mapColumnType(col Column) string {
	if dest, ok := destTypes[col.SourceType]; ok {
		return dest
	}
	return "longtext"
}

// isNumericKind reports whether a destination type holds numbers, for
// missing-value substitution.
func isNumericKind(destType string) bool {
	switch {
	case strings.HasPrefix(destType, "tinyint"),
		destType == "smallint", destType == "int", destType == "bigint",
		destType == "float", destType == "double",
		strings.HasPrefix(destType, "decimal"):
		return true
	}
	return false
}

// isBooleanKind reports whether a destination type is the boolean
// representation (tinyint(1)); such values are coerced to exactly 1/0.
func isBooleanKind(destType string) bool {
	return destType == "tinyint(1)"
}

// myIdent quotes a MySQL identifier.
func myIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
