package shapefile

import (
	"fmt"

	shp "github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
)

// GeoJSONOptions tunes ToGeoJSON.
type GeoJSONOptions struct {
	// CRSName, when set, is written as a named crs member, e.g. "EPSG:3857".
	CRSName string
}

// ToGeoJSON converts every record of r, with its attributes as properties,
// into a feature collection.
func ToGeoJSON(r *Reader, opts GeoJSONOptions) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	if opts.CRSName != "" {
		fc.CRS = map[string]interface{}{
			"type":       "name",
			"properties": map[string]interface{}{"name": opts.CRSName},
		}
	}

	for i, rec := range r.Records() {
		geom, err := toGeometry(rec.Shape)
		if err != nil {
			return nil, fmt.Errorf("[toGeometry] record %d in pkg [shapefile] encountered: %w", rec.ID, err)
		}

		feature := geojson.NewFeature(geom)
		feature.ID = rec.ID

		props, err := r.Table().Properties(i)
		if err != nil {
			return nil, err
		}
		for k, v := range props {
			feature.SetProperty(k, v)
		}

		fc.AddFeature(feature)
	}

	return fc, nil
}

// toGeometry converts one shape. Null shapes have no geometry.
func toGeometry(shape shp.Shape) (*geojson.Geometry, error) {
	switch s := shape.(type) {
	case *shp.Null:
		return nil, nil
	case *shp.Point:
		return geojson.NewPointGeometry([]float64{s.X, s.Y}), nil
	case *shp.PointZ:
		return geojson.NewPointGeometry([]float64{s.X, s.Y, s.Z}), nil
	case *shp.MultiPoint:
		return geojson.NewMultiPointGeometry(coords(s.Points, nil)...), nil
	case *shp.MultiPointZ:
		return geojson.NewMultiPointGeometry(coords(s.Points, s.ZArray)...), nil
	case *shp.PolyLine:
		return lineGeometry(s.Parts, coords(s.Points, nil)), nil
	case *shp.PolyLineZ:
		return lineGeometry(s.Parts, coords(s.Points, s.ZArray)), nil
	case *shp.Polygon:
		return polygonGeometry(s.Parts, s.Points, coords(s.Points, nil)), nil
	case *shp.PolygonZ:
		return polygonGeometry(s.Parts, s.Points, coords(s.Points, s.ZArray)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, shape)
}

// coords flattens points into coordinates, adding z when present.
func coords(points []shp.Point, z []float64) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		if i < len(z) {
			out[i] = []float64{p.X, p.Y, z[i]}
			continue
		}
		out[i] = []float64{p.X, p.Y}
	}
	return out
}

// split cuts coordinates at part offsets.
func split(parts []int32, cs [][]float64) [][][]float64 {
	out := make([][][]float64, 0, len(parts))
	for k, start := range parts {
		end := len(cs)
		if k+1 < len(parts) {
			end = int(parts[k+1])
		}
		out = append(out, cs[start:end])
	}
	return out
}

func lineGeometry(parts []int32, cs [][]float64) *geojson.Geometry {
	lines := split(parts, cs)
	if len(lines) == 1 {
		return geojson.NewLineStringGeometry(lines[0])
	}
	return geojson.NewMultiLineStringGeometry(lines...)
}

// polygonGeometry groups rings by orientation and emits a Polygon or a
// MultiPolygon.
func polygonGeometry(parts []int32, points []shp.Point, cs [][]float64) *geojson.Geometry {
	ringCoords := split(parts, cs)

	var polys [][][][]float64
	for k, ring := range rings(parts, points) {
		if len(polys) == 0 || ring.Orientation() != orb.CCW {
			polys = append(polys, [][][]float64{ringCoords[k]})
			continue
		}
		polys[len(polys)-1] = append(polys[len(polys)-1], ringCoords[k])
	}

	if len(polys) == 1 {
		return geojson.NewPolygonGeometry(polys[0])
	}
	return geojson.NewMultiPolygonGeometry(polys...)
}
