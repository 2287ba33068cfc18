package shapefile

import (
	"fmt"
	"os"

	shp "github.com/jonas-p/go-shp"
	"golang.org/x/text/encoding"
)

// sidecar extensions making up one shapefile, "dbf" is the name go-shp
// writers leave behind before rename
var sidecars = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", "dbf"}

// Layer is a shapefile ready to be written: shapes plus raw attribute rows.
type Layer struct {
	Type       shp.ShapeType
	Fields     []shp.Field
	Shapes     []shp.Shape
	Attributes [][]string

	// CodePage is written to the .cpg sidecar when set.
	CodePage string
	// Encoding converts the UTF-8 attribute text before it is stored.
	// Nil keeps the text as is.
	Encoding encoding.Encoding
}

// Write creates the shapefile at path from layer. On failure every file
// written so far is removed again.
func Write(path string, layer Layer) error {
	path = ShapePath(path)
	base := BasePath(path)

	w, err := shp.Create(path, layer.Type)
	if err != nil {
		return fmt.Errorf("[shp.Create] in pkg [shapefile] encountered: %w", err)
	}

	err = writeRecords(w, layer)
	w.Close()

	// go-shp names the table <base>dbf
	if err == nil {
		if err = os.Rename(base+"dbf", base+".dbf"); err != nil {
			err = fmt.Errorf("[os.Rename] in pkg [shapefile] encountered: %w", err)
		}
	}
	if err == nil && layer.CodePage != "" {
		if err = os.WriteFile(base+".cpg", []byte(layer.CodePage), 0o644); err != nil {
			err = fmt.Errorf("[os.WriteFile] in pkg [shapefile] encountered: %w", err)
		}
	}

	if err != nil {
		if rmErr := Remove(path); rmErr != nil {
			return fmt.Errorf("%w (cleanup: %v)", err, rmErr)
		}
		return err
	}
	return nil
}

func writeRecords(w *shp.Writer, layer Layer) error {
	if err := w.SetFields(layer.Fields); err != nil {
		return fmt.Errorf("[SetFields] in pkg [shapefile] encountered: %w", err)
	}

	var enc *encoding.Encoder
	if layer.Encoding != nil {
		enc = layer.Encoding.NewEncoder()
	}

	for i, shape := range layer.Shapes {
		n := int(w.Write(shape))
		if i >= len(layer.Attributes) {
			continue
		}
		for k, value := range layer.Attributes[i] {
			if k >= len(layer.Fields) {
				break
			}
			if enc != nil {
				encoded, err := enc.String(value)
				if err != nil {
					return fmt.Errorf("[Encode] row %d field %d in pkg [shapefile] encountered: %w", n, k, err)
				}
				value = encoded
			}
			if err := w.WriteAttribute(n, k, value); err != nil {
				return fmt.Errorf("[WriteAttribute] row %d field %d in pkg [shapefile] encountered: %w", n, k, err)
			}
		}
	}
	return nil
}

// Remove deletes every file of the shapefile at path. Missing files are
// ignored.
func Remove(path string) error {
	base := BasePath(path)
	for _, ext := range sidecars {
		if err := os.Remove(base + ext); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
