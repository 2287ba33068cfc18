// Package reproject rewrites shapefiles between geographic WGS84
// (EPSG:4326) and spherical web mercator (EPSG:3857) without GDAL, and
// writes the matching .prj file.
package reproject

import (
	"errors"
	"fmt"
	"os"

	"github.com/godeepar/gisconvert"
	"github.com/godeepar/gisconvert/shapefile"
)

// ErrUnsupportedTransform indicates an EPSG pair this package cannot convert.
var ErrUnsupportedTransform = errors.New("reproject: unsupported transform")

// EPSG codes converted natively.
const (
	WGS84       = 4326
	WebMercator = 3857
)

// aliases of web mercator
var mercatorCodes = map[int]bool{3857: true, 3785: true, 900913: true}

const (
	wgs84WKT       = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`
	webMercatorWKT = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",` + wgs84WKT + `,PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`
)

// Options selects the source and target EPSG codes.
type Options struct {
	From, To int
	// Overwrite replaces an existing output shapefile.
	Overwrite bool
}

// Result describes a written shapefile.
type Result struct {
	Path    string
	PrjPath string
	Records int
	Extent  gisconvert.Extent
}

// Supported reports whether Shapefile can convert between from and to and
// has a built-in WKT for to.
func Supported(from, to int) bool {
	if _, err := transformFor(from, to); err != nil {
		return false
	}
	_, err := ESRIWKT(to)
	return err == nil
}

// Shapefile reprojects every record of src into dst, copying all attribute
// fields and the source code page, and writes dst's .prj. A failed run
// leaves no output behind.
func Shapefile(src, dst string, opts Options) (*Result, error) {
	fn, err := transformFor(opts.From, opts.To)
	if err != nil {
		return nil, err
	}
	wkt, err := ESRIWKT(opts.To)
	if err != nil {
		return nil, err
	}

	r, err := shapefile.Open(src)
	if err != nil {
		return nil, err
	}

	dst = shapefile.ShapePath(dst)
	if opts.Overwrite {
		if err := shapefile.Remove(dst); err != nil {
			return nil, err
		}
	} else if err := gisconvert.RequireAbsent(dst); err != nil {
		return nil, err
	}

	layer := r.Layer()
	res := &Result{Path: dst, Records: len(layer.Shapes)}
	for i, shape := range layer.Shapes {
		if err := shapefile.TransformShape(shape, fn); err != nil {
			return nil, fmt.Errorf("[TransformShape] record %d in pkg [reproject] encountered: %w", i+1, err)
		}
	}

	if err := shapefile.Write(dst, layer); err != nil {
		return nil, err
	}

	if res.PrjPath, err = WritePrj(dst, wkt); err != nil {
		return nil, discard(dst, err)
	}

	out, err := shapefile.Open(dst)
	if err != nil {
		return nil, discard(dst, err)
	}
	res.Extent = out.Extent()

	return res, nil
}

// discard removes a half written output shapefile and returns err.
func discard(dst string, err error) error {
	if rmErr := shapefile.Remove(dst); rmErr != nil {
		return fmt.Errorf("%w (cleanup: %v)", err, rmErr)
	}
	return err
}

func transformFor(from, to int) (func(x, y float64) (float64, float64), error) {
	switch {
	case from == WGS84 && mercatorCodes[to]:
		return gisconvert.ProjectMercator, nil
	case mercatorCodes[from] && to == WGS84:
		return gisconvert.InverseMercator, nil
	case from == to, mercatorCodes[from] && mercatorCodes[to]:
		return func(x, y float64) (float64, float64) { return x, y }, nil
	}
	return nil, fmt.Errorf("%w: EPSG:%d to EPSG:%d", ErrUnsupportedTransform, from, to)
}

// ESRIWKT returns the ESRI flavoured WKT of a supported EPSG code.
func ESRIWKT(epsg int) (string, error) {
	switch {
	case epsg == WGS84:
		return wgs84WKT, nil
	case mercatorCodes[epsg]:
		return webMercatorWKT, nil
	}
	return "", fmt.Errorf("%w: no built-in WKT for EPSG:%d", ErrUnsupportedTransform, epsg)
}

// WritePrj writes wkt to the .prj file of the shapefile at shpPath and
// returns the .prj path.
func WritePrj(shpPath, wkt string) (string, error) {
	prj := shapefile.BasePath(shpPath) + ".prj"
	if err := os.WriteFile(prj, []byte(wkt), 0o644); err != nil {
		return "", fmt.Errorf("[os.WriteFile] in pkg [reproject] encountered: %w", err)
	}
	return prj, nil
}
