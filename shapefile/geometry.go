package shapefile

import (
	"fmt"
	"math"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/godeepar/gisconvert"
)

// geometryNames maps shape types to OGR -nlt geometry names.
var geometryNames = map[shp.ShapeType]string{
	shp.NULL:        "NONE",
	shp.POINT:       "POINT",
	shp.POLYLINE:    "LINESTRING",
	shp.POLYGON:     "POLYGON",
	shp.MULTIPOINT:  "MULTIPOINT",
	shp.POINTZ:      "POINTZ",
	shp.POLYLINEZ:   "LINESTRINGZ",
	shp.POLYGONZ:    "POLYGONZ",
	shp.MULTIPOINTZ: "MULTIPOINTZ",
	shp.POINTM:      "POINTM",
	shp.POLYLINEM:   "LINESTRINGM",
	shp.POLYGONM:    "POLYGONM",
	shp.MULTIPOINTM: "MULTIPOINTM",
	shp.MULTIPATCH:  "MULTIPOLYGONZ",
}

// GeometryName returns the OGR geometry name for a shape type, or "UNKNOWN".
func GeometryName(t shp.ShapeType) string {
	if name, ok := geometryNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// PromoteToMulti returns the multi variant of a line or polygon geometry name.
func PromoteToMulti(name string) string {
	switch name {
	case "LINESTRING", "LINESTRINGZ", "LINESTRINGM", "POLYGON", "POLYGONZ", "POLYGONM":
		return "MULTI" + name
	}
	return name
}

// DiscoverGeometry opens the shapefile header at path and returns its OGR
// geometry name.
func DiscoverGeometry(path string) (string, error) {
	path = ShapePath(path)
	if err := gisconvert.RequireSource(path); err != nil {
		return "", err
	}
	r, err := shp.Open(path)
	if err != nil {
		return "", fmt.Errorf("[shp.Open] in pkg [shapefile] encountered: %w", err)
	}
	defer r.Close()
	return GeometryName(r.GeometryType), nil
}

// TransformShape applies fn to every x, y vertex of shape in place and
// recomputes its bounding box.
func TransformShape(shape shp.Shape, fn func(x, y float64) (float64, float64)) error {
	switch s := shape.(type) {
	case *shp.Null:
	case *shp.Point:
		s.X, s.Y = fn(s.X, s.Y)
	case *shp.PointZ:
		s.X, s.Y = fn(s.X, s.Y)
	case *shp.PolyLine:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.Polygon:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.MultiPoint:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.PolyLineZ:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.PolygonZ:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.MultiPointZ:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.PointM:
		s.X, s.Y = fn(s.X, s.Y)
	case *shp.PolyLineM:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.PolygonM:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	case *shp.MultiPointM:
		transformPoints(s.Points, fn)
		s.Box = shp.BBoxFromPoints(s.Points)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedShape, shape)
	}
	return nil
}

func transformPoints(points []shp.Point, fn func(x, y float64) (float64, float64)) {
	for i := range points {
		points[i].X, points[i].Y = fn(points[i].X, points[i].Y)
	}
}

// Area returns the planar area of a polygon shape, holes subtracted.
// Other shape types have no area.
func Area(shape shp.Shape) float64 {
	var parts []int32
	var points []shp.Point
	switch s := shape.(type) {
	case *shp.Polygon:
		parts, points = s.Parts, s.Points
	case *shp.PolygonZ:
		parts, points = s.Parts, s.Points
	default:
		return 0
	}

	var area float64
	for _, poly := range groupRings(rings(parts, points)) {
		area += math.Abs(planar.Area(poly[0]))
		for _, hole := range poly[1:] {
			area -= math.Abs(planar.Area(hole))
		}
	}
	return area
}

// rings splits the points of a multi-part shape at its part offsets.
func rings(parts []int32, points []shp.Point) []orb.Ring {
	out := make([]orb.Ring, 0, len(parts))
	for k, start := range parts {
		end := len(points)
		if k+1 < len(parts) {
			end = int(parts[k+1])
		}
		ring := make(orb.Ring, 0, end-int(start))
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		out = append(out, ring)
	}
	return out
}

// groupRings assigns rings to polygons: a clockwise ring starts a new
// polygon, a counter-clockwise ring is a hole of the current one.
func groupRings(rs []orb.Ring) []orb.Polygon {
	var polys []orb.Polygon
	for _, ring := range rs {
		if len(polys) == 0 || ring.Orientation() != orb.CCW {
			polys = append(polys, orb.Polygon{ring})
			continue
		}
		polys[len(polys)-1] = append(polys[len(polys)-1], ring)
	}
	return polys
}
