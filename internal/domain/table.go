package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawTable is an extracted table before any type coercion. Every cell is text;
// an empty cell is a missing value.
type RawTable struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t RawTable) Len() int { return len(t.Rows) }

// Column returns the index of the named column, or a *SchemaError.
func (t RawTable) Column(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, &SchemaError{Table: t.Name, Column: name}
}

// optionalColumn returns the index of the first present name, or -1.
func (t RawTable) optionalColumn(names ...string) int {
	for _, name := range names {
		if i, err := t.Column(name); err == nil {
			return i
		}
	}
	return -1
}

// naTokens are the cell values pandas reads as missing by default.
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {},
	"None": {}, "n/a": {}, "nan": {}, "null": {},
}

// cell returns the value at (row, col). Short rows, col -1 and NA tokens read
// as missing. Values are not trimmed: identifiers differing only in
// whitespace are distinct.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	v := row[col]
	if _, na := naTokens[v]; na {
		return ""
	}
	return v
}

// RawTables bundles the three extracts consumed by one pipeline run.
type RawTables struct {
	Movies      RawTable
	Ratings     RawTable
	UserRatings RawTable
}

// ColumnType is the storage type of an output column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeReal
	TypeList // []string, stored as a JSON array
)

func (c ColumnType) String() string {
	switch c {
	case TypeInteger:
		return "integer"
	case TypeReal:
		return "real"
	case TypeList:
		return "list"
	default:
		return "text"
	}
}

// Column describes one output column.
type Column struct {
	Name string
	Type ColumnType
}

// Table is a typed output table handed to audit sinks and loaders. Cells hold
// string, int64, float64, []string or nil (SQL NULL).
type Table struct {
	Name    string
	Columns []Column
	Key     []string // columns that identify a row
	Rows    [][]any
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// RowKey joins the key column values of row i with "|".
func (t Table) RowKey(i int) string {
	parts := make([]string, 0, len(t.Key))
	for _, k := range t.Key {
		for j, c := range t.Columns {
			if c.Name == k {
				parts = append(parts, FormatCell(t.Rows[i][j]))
				break
			}
		}
	}
	return strings.Join(parts, "|")
}

// Raw renders the table as text, the inverse of the cleaning stages' parsing.
func (t Table) Raw() RawTable {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]string, len(row))
		for j, v := range row {
			out[j] = FormatCell(v)
		}
		rows[i] = out
	}
	return RawTable{Name: t.Name, Columns: t.ColumnNames(), Rows: rows}
}

// FormatCell renders a cell as CSV text. Lists render as JSON arrays and nil
// renders as an empty string.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []string:
		if x == nil {
			return "[]"
		}
		b, err := json.Marshal(x)
		if err != nil {
			return "[]"
		}
		return string(b)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func intCell(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
