package shapefile

import (
	"fmt"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// FieldSpec describes one DBF column.
type FieldSpec struct {
	Name string
	// Type is the DBF type code: C, N, F, L or D.
	Type     string
	Length   int
	Decimals int
}

// Table is an in-memory DBF attribute table.
type Table struct {
	spec   []FieldSpec
	fields []shp.Field
	rows   [][]string
}

// OpenTable reads the attribute table of the shapefile at path.
// Either the .dbf or the .shp path may be given.
func OpenTable(path string) (*Table, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	return r.Table(), nil
}

// Header returns the column names.
func (t *Table) Header() []string {
	names := make([]string, len(t.spec))
	for i, f := range t.spec {
		names[i] = f.Name
	}
	return names
}

// FieldSpec returns the column descriptions.
func (t *Table) FieldSpec() []FieldSpec {
	return t.spec
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the typed values of row i. Negative i counts from the end.
func (t *Table) Row(i int) ([]interface{}, error) {
	idx, err := index(i, len(t.rows))
	if err != nil {
		return nil, err
	}
	return t.typed(idx, 0, len(t.spec)), nil
}

// Rows returns rows [start, end), clamped to the table.
func (t *Table) Rows(start, end int) [][]interface{} {
	return t.Slice(start, end, 0, len(t.spec))
}

// Cell returns the typed value at row i, column j. Negative indexes count
// from the end.
func (t *Table) Cell(i, j int) (interface{}, error) {
	row, err := index(i, len(t.rows))
	if err != nil {
		return nil, err
	}
	col, err := index(j, len(t.spec))
	if err != nil {
		return nil, err
	}
	return parseValue(t.spec[col], t.rows[row][col]), nil
}

// Column returns every value of column j.
func (t *Table) Column(j int) ([]interface{}, error) {
	col, err := index(j, len(t.spec))
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(t.rows))
	for i, row := range t.rows {
		values[i] = parseValue(t.spec[col], row[col])
	}
	return values, nil
}

// Slice returns rows [rowStart, rowEnd) restricted to columns
// [colStart, colEnd), both clamped to the table.
func (t *Table) Slice(rowStart, rowEnd, colStart, colEnd int) [][]interface{} {
	rlo, rhi := bounds(rowStart, rowEnd, len(t.rows))
	clo, chi := bounds(colStart, colEnd, len(t.spec))

	out := make([][]interface{}, 0, rhi-rlo)
	for i := rlo; i < rhi; i++ {
		out = append(out, t.typed(i, clo, chi))
	}
	return out
}

// Properties returns row i keyed by column name.
func (t *Table) Properties(i int) (map[string]interface{}, error) {
	idx, err := index(i, len(t.rows))
	if err != nil {
		return nil, err
	}
	props := make(map[string]interface{}, len(t.spec))
	for j, f := range t.spec {
		props[f.Name] = parseValue(f, t.rows[idx][j])
	}
	return props, nil
}

func (t *Table) typed(row, lo, hi int) []interface{} {
	values := make([]interface{}, 0, hi-lo)
	for j := lo; j < hi; j++ {
		values = append(values, parseValue(t.spec[j], t.rows[row][j]))
	}
	return values
}

// parseValue converts a raw DBF cell according to its column type.
// Blank or unparsable numbers are nil.
func parseValue(f FieldSpec, raw string) interface{} {
	raw = clean(raw)

	switch f.Type {
	case "N", "F":
		if raw == "" {
			return nil
		}
		if f.Type == "N" && f.Decimals == 0 {
			if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return v
			}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return v
	case "L":
		switch strings.ToUpper(raw) {
		case "T", "Y":
			return true
		case "F", "N":
			return false
		}
		return nil
	default:
		return raw
	}
}

// String formats the spec like ('C', 10, 0).
func (f FieldSpec) String() string {
	return fmt.Sprintf("('%s', %d, %d)", f.Type, f.Length, f.Decimals)
}
