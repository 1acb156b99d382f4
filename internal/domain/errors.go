package domain

import "fmt"

// ParseError reports a cell that could not be coerced to its column type.
type ParseError struct {
	Table  string
	Column string
	Row    int // 1-based data row, header excluded
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s.%s row %d value %q: %v", e.Table, e.Column, e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a required column missing from a raw table.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: missing required column %q", e.Table, e.Column)
}
