// Package shapefile reads ESRI shapefiles and their DBF attribute tables into
// memory, writes them back, and converts them to GeoJSON.
package shapefile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"golang.org/x/text/encoding"

	"github.com/godeepar/gisconvert"
)

// Sentinel errors for shapefile access.
var (
	// ErrIndexOutOfRange indicates a record, row or column index past the data.
	ErrIndexOutOfRange = errors.New("shapefile: index out of range")
	// ErrUnsupportedShape indicates a shape type the package cannot handle.
	ErrUnsupportedShape = errors.New("shapefile: unsupported shape type")
)

// Record is one geometry of a shapefile.
type Record struct {
	// ID is the 1-based shapefile record number.
	ID    int
	Shape shp.Shape
}

// Reader holds every record of a shapefile and its attribute table.
type Reader struct {
	Path     string
	geomType shp.ShapeType
	bbox     shp.Box
	records  []Record
	table    *Table
	codePage string
	enc      encoding.Encoding
}

// Open reads the shapefile at path. A .dbf path is mapped to its .shp.
// Attribute text is decoded from the code page of the .cpg sidecar, if any.
// Returns gisconvert.ErrSourceNotFound when the .shp or its .dbf does not
// exist.
func Open(path string) (*Reader, error) {
	path = ShapePath(path)
	if err := gisconvert.RequireSource(path); err != nil {
		return nil, err
	}
	// go-shp reports a missing table as zero fields
	if err := gisconvert.RequireSource(BasePath(path) + ".dbf"); err != nil {
		return nil, err
	}

	codePage, enc, err := readCodePage(path)
	if err != nil {
		return nil, err
	}

	raw, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[shp.Open] in pkg [shapefile] encountered: %w", err)
	}
	defer raw.Close()

	r := &Reader{
		Path:     path,
		geomType: raw.GeometryType,
		bbox:     raw.BBox(),
		codePage: codePage,
		enc:      enc,
	}

	fields := raw.Fields()
	table := &Table{spec: make([]FieldSpec, len(fields)), fields: fields}
	for i, f := range fields {
		table.spec[i] = FieldSpec{
			Name:     f.String(),
			Type:     string(f.Fieldtype),
			Length:   int(f.Size),
			Decimals: int(f.Precision),
		}
	}

	for raw.Next() {
		n, shape := raw.Shape()
		r.records = append(r.records, Record{ID: n + 1, Shape: shape})

		row := make([]string, len(fields))
		for k := range fields {
			row[k] = clean(raw.ReadAttribute(n, k))
		}
		table.rows = append(table.rows, row)
	}
	if err := raw.Err(); err != nil {
		return nil, fmt.Errorf("[shp.Next] record %d in pkg [shapefile] encountered: %w", len(r.records)+1, err)
	}
	r.table = table

	if enc != nil {
		if err := decodeRows(table.rows, enc); err != nil {
			return nil, fmt.Errorf("[decodeRows] in pkg [shapefile] encountered: %w", err)
		}
	}

	return r, nil
}

// ShapePath maps a path to a shapefile component onto its .shp file.
func ShapePath(path string) string {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".dbf", ".shx", ".prj", ".cpg":
		return strings.TrimSuffix(path, ext) + ".shp"
	}
	return path
}

// BasePath returns the shapefile path without its extension, the stem
// shared by every sidecar file.
func BasePath(path string) string {
	path = ShapePath(path)
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

// Len returns the number of records.
func (r *Reader) Len() int {
	return len(r.records)
}

// Get returns record i. Negative i counts from the end.
func (r *Reader) Get(i int) (Record, error) {
	idx, err := index(i, len(r.records))
	if err != nil {
		return Record{}, err
	}
	return r.records[idx], nil
}

// Slice returns records [start, end), clamped to the available records.
// Negative bounds count from the end.
func (r *Reader) Slice(start, end int) []Record {
	lo, hi := bounds(start, end, len(r.records))
	return r.records[lo:hi]
}

// Records returns every record in file order.
func (r *Reader) Records() []Record {
	return r.records
}

// Type returns the shape type declared in the file header.
func (r *Reader) Type() shp.ShapeType {
	return r.geomType
}

// GeometryName returns the OGR geometry name of the layer.
func (r *Reader) GeometryName() string {
	return GeometryName(r.geomType)
}

// BBox returns the bounding box declared in the file header.
func (r *Reader) BBox() shp.Box {
	return r.bbox
}

// Extent returns the header bounding box as a gisconvert.Extent.
func (r *Reader) Extent() gisconvert.Extent {
	if len(r.records) == 0 {
		return gisconvert.Extent{}
	}
	return gisconvert.NewExtent(r.bbox.MinX, r.bbox.MinY, r.bbox.MaxX, r.bbox.MaxY)
}

// Table returns the attribute table.
func (r *Reader) Table() *Table {
	return r.table
}

// Layer returns the records and attributes, ready to be written again.
// Attribute text is encoded back to the code page it was read from.
func (r *Reader) Layer() Layer {
	shapes := make([]shp.Shape, len(r.records))
	for i, rec := range r.records {
		shapes[i] = rec.Shape
	}
	return Layer{
		Type:       r.geomType,
		Fields:     r.table.fields,
		Shapes:     shapes,
		Attributes: r.table.rows,
		CodePage:   r.codePage,
		Encoding:   r.enc,
	}
}

// index resolves a possibly negative index against n items.
func index(i, n int) (int, error) {
	idx := i
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, n)
	}
	return idx, nil
}

// bounds resolves [start, end) against n items, clamping like a slice
// expression with negative indexes counted from the end.
func bounds(start, end, n int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		if i < 0 {
			return 0
		}
		if i > n {
			return n
		}
		return i
	}
	lo, hi := clamp(start), clamp(end)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// clean strips the space and NUL padding of a DBF cell.
func clean(s string) string {
	return strings.Trim(s, " \x00")
}
