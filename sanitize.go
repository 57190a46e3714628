package main

import "strings"

// sanitizeValue normalizes one source value before insertion. Two rules apply
// in a fixed order: the missing-value default first, then boolean coercion.
// The default substitution can itself produce the boolean zero value that the
// coercion step re-validates.
func sanitizeValue(val any, col Column, destType string) any {
	if isMissing(val) {
		switch {
		case col.Nullable:
			val = nil
		case isBooleanKind(destType):
			val = false
		case isNumericKind(destType):
			val = 0
		default:
			val = ""
		}
	}

	if isBooleanKind(destType) {
		if val == nil {
			return nil
		}
		if truthyValue(val) {
			return 1
		}
		return 0
	}
	return val
}

// isMissing reports whether a source value is absent or an empty string.
func isMissing(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	}
	return false
}

// truthyValue coerces an arbitrary source value to a boolean.
func truthyValue(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	case []byte:
		return truthy(string(v))
	case string:
		return truthy(v)
	}
	return false
}

// truthy parses a truthy string representation; everything outside the known
// set is false.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

// sanitizeRow applies sanitizeValue across one row in column order.
func sanitizeRow(vals []any, cols []Column) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = sanitizeValue(v, cols[i], mapColumnType(cols[i]))
	}
	return out
}
