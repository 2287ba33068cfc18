// Package gisconvert holds the helpers shared by the gisconvert tools:
// sentinel errors, bounding box extents, EPSG:4326 <-> EPSG:3857 conversion
// and s2 coverings of an extent.
package gisconvert

import (
	"math"

	"github.com/golang/geo/s2"
	geo "github.com/paulmach/go.geo"
)

const (
	// MercatorMaxLat is the latitude at which spherical mercator is cut off.
	MercatorMaxLat = 85.05112878

	// level of the s2 cells reported for an extent
	s2TokenLevel = 12
)

// Extent is a bounding box that grows one coordinate at a time.
type Extent struct {
	MinX, MinY float64
	MaxX, MaxY float64
	set        bool
}

// NewExtent returns an extent spanning the given corners.
func NewExtent(minX, minY, maxX, maxY float64) Extent {
	e := Extent{}
	e.Add(minX, minY)
	e.Add(maxX, maxY)
	return e
}

// Add grows the extent to include x, y.
func (e *Extent) Add(x, y float64) {
	if !e.set {
		e.MinX, e.MaxX = x, x
		e.MinY, e.MaxY = y, y
		e.set = true
		return
	}

	// if the inbound X is outside of current extent, grow extent
	if x < e.MinX {
		e.MinX = x
	} else if x > e.MaxX {
		e.MaxX = x
	}

	// if the inbound Y is outside of current extent, grow extent
	if y < e.MinY {
		e.MinY = y
	} else if y > e.MaxY {
		e.MaxY = y
	}
}

// Empty reports whether no coordinate has been added.
func (e Extent) Empty() bool {
	return !e.set
}

// Center calculates the center of the extent.
func (e Extent) Center() (float64, float64) {
	return e.MaxX - (e.MaxX-e.MinX)/2, e.MaxY - (e.MaxY-e.MinY)/2
}

// ProjectMercator converts an EPSG:4326 lon/lat to EPSG:3857 meters.
// Latitudes are clamped to MercatorMaxLat.
func ProjectMercator(lon, lat float64) (float64, float64) {
	lat = math.Max(-MercatorMaxLat, math.Min(MercatorMaxLat, lat))
	p := geo.NewPoint(lon, lat)
	geo.Mercator.Project(p)
	return p.X(), p.Y()
}

// InverseMercator converts EPSG:3857 meters to an EPSG:4326 lon/lat.
func InverseMercator(x, y float64) (float64, float64) {
	p := geo.NewPoint(x, y)
	geo.Mercator.Inverse(p)
	return p.X(), p.Y()
}

// To4326 converts coordinates to EPSG:4326 when they look like mercator meters.
// Coordinates already within degree range are returned untouched.
func To4326(x float64, y float64) (float64, float64) {
	if x > 180 || x < -180 || y > 180 || y < -180 {
		lon, lat := InverseMercator(x, y)
		x = math.Round(lon*10000) / 10000
		y = math.Round(lat*10000) / 10000
	}

	return x, y
}

// To3857 converts coordinates to EPSG:3857 when they look like degrees.
func To3857(x float64, y float64) (float64, float64) {
	if x >= -180 && x <= 180 && y >= -180 && y <= 180 {
		mx, my := ProjectMercator(x, y)

		// trim decimals to the cm
		x = math.Round(mx*100) / 100
		y = math.Round(my*100) / 100
	}

	return x, y
}

// S2Covering finds the s2 tokens that cover the geographic area of the extent.
// Extents in mercator meters are converted to EPSG:4326 first.
func S2Covering(e Extent) []string {
	var tokens []string

	// don't panic if extent is empty... it means we had a bunk dataset
	if e.Empty() {
		return tokens
	}

	lx, ly := To4326(e.MinX, e.MinY)
	rx, uy := To4326(e.MaxX, e.MaxY)

	// a point or a line has no loop, take the cell holding the corner
	if lx == rx || ly == uy {
		cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(ly, lx)).Parent(s2TokenLevel)
		return append(tokens, cell.ToToken())
	}

	pts := []s2.Point{
		s2.PointFromLatLng(s2.LatLngFromDegrees(uy, rx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(uy, lx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(ly, lx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(ly, rx)),
	}

	loop := s2.LoopFromPoints(pts)
	seen := make(map[string]bool)

	for _, cell := range loop.CellUnionBound() {
		if cell.Level() > s2TokenLevel {
			cell = cell.Parent(s2TokenLevel)
		}
		token := cell.ToToken()
		if seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}

	return tokens
}
