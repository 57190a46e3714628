package main

import "testing"

func TestSanitizeValue_MissingValueDefaults(t *testing.T) {
	intCol := Column{Name: "n", SourceType: "integer"}
	boolCol := Column{Name: "b", SourceType: "boolean"}
	textCol := Column{Name: "s", SourceType: "text"}

	// non-nullable numeric with empty source value yields zero
	if got := sanitizeValue("", intCol, "int"); got != 0 {
		t.Errorf("empty string in non-nullable int = %v, want 0", got)
	}
	if got := sanitizeValue(nil, intCol, "int"); got != 0 {
		t.Errorf("nil in non-nullable int = %v, want 0", got)
	}

	// non-nullable boolean yields false, represented as 0
	if got := sanitizeValue("", boolCol, "tinyint(1)"); got != 0 {
		t.Errorf("empty string in non-nullable bool = %v, want 0", got)
	}

	// other non-nullable kinds yield the empty string
	if got := sanitizeValue(nil, textCol, "longtext"); got != "" {
		t.Errorf("nil in non-nullable text = %v, want empty string", got)
	}

	// nullable columns of any kind yield explicit null
	nullable := Column{Name: "s", SourceType: "text", Nullable: true}
	if got := sanitizeValue(nil, nullable, "longtext"); got != nil {
		t.Errorf("nil in nullable text = %v, want nil", got)
	}
	nullableInt := Column{Name: "n", SourceType: "integer", Nullable: true}
	if got := sanitizeValue("", nullableInt, "int"); got != nil {
		t.Errorf("empty string in nullable int = %v, want nil", got)
	}
}

func TestSanitizeValue_BooleanCoercion(t *testing.T) {
	col := Column{Name: "b", SourceType: "boolean"}

	truthyInputs := []any{"true", "1", "yes", "y", "on", "TRUE", int64(1), int64(5), 3.14, true, []byte("t")}
	for _, in := range truthyInputs {
		if got := sanitizeValue(in, col, "tinyint(1)"); got != 1 {
			t.Errorf("sanitizeValue(%v) = %v, want 1", in, got)
		}
	}

	falsyInputs := []any{"false", "0", "", "no", "off", "banana", int64(0), 0.0, false}
	for _, in := range falsyInputs {
		if got := sanitizeValue(in, col, "tinyint(1)"); got != 0 {
			t.Errorf("sanitizeValue(%v) = %v, want 0", in, got)
		}
	}

	// nullable boolean with a missing value stays null, not 0
	nullable := Column{Name: "b", SourceType: "boolean", Nullable: true}
	if got := sanitizeValue("", nullable, "tinyint(1)"); got != nil {
		t.Errorf("missing nullable bool = %v, want nil", got)
	}
}

func TestSanitizeValue_NonBooleanPassthrough(t *testing.T) {
	col := Column{Name: "s", SourceType: "text", Nullable: true}
	if got := sanitizeValue("hello", col, "longtext"); got != "hello" {
		t.Errorf("text passthrough = %v", got)
	}
	intCol := Column{Name: "n", SourceType: "integer"}
	if got := sanitizeValue(int64(7), intCol, "int"); got != int64(7) {
		t.Errorf("int passthrough = %v", got)
	}
}

func TestSanitizeRow(t *testing.T) {
	cols := []Column{
		{Name: "n", SourceType: "integer"},
		{Name: "b", SourceType: "boolean"},
		{Name: "s", SourceType: "text", Nullable: true},
	}
	out := sanitizeRow([]any{"", "yes", nil}, cols)
	if out[0] != 0 {
		t.Errorf("out[0] = %v, want 0", out[0])
	}
	if out[1] != 1 {
		t.Errorf("out[1] = %v, want 1", out[1])
	}
	if out[2] != nil {
		t.Errorf("out[2] = %v, want nil", out[2])
	}
}
