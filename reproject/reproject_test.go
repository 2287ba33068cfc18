package reproject

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godeepar/gisconvert"
	"github.com/godeepar/gisconvert/shapefile"
)

// writeZones writes two UTM-zone-like polygons in degrees.
func writeZones(t *testing.T, dir string) string {
	t.Helper()
	zone := func(west, south float64) *shp.Polygon {
		ring := []shp.Point{
			{X: west, Y: south}, {X: west, Y: south + 8}, {X: west + 6, Y: south + 8},
			{X: west + 6, Y: south}, {X: west, Y: south},
		}
		p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		return &p
	}

	path := filepath.Join(dir, "UTM_Zone_Boundaries.shp")
	require.NoError(t, shapefile.Write(path, shapefile.Layer{
		Type: shp.POLYGON,
		Fields: []shp.Field{
			shp.StringField("ZONE", 8),
			shp.NumberField("ROW_", 4),
		},
		Shapes:     []shp.Shape{zone(-114, 40), zone(12, -56.5)},
		Attributes: [][]string{{"12T", "7"}, {"33F", "2"}},
	}))
	return path
}

func points(t *testing.T, path string) [][]shp.Point {
	t.Helper()
	r, err := shapefile.Open(path)
	require.NoError(t, err)
	var out [][]shp.Point
	for _, rec := range r.Records() {
		out = append(out, rec.Shape.(*shp.Polygon).Points)
	}
	return out
}

func TestShapefileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeZones(t, dir)
	merc := filepath.Join(dir, "UTM_Zone_Boundaries_3857.shp")
	back := filepath.Join(dir, "UTM_Zone_Boundaries_4326.shp")

	res, err := Shapefile(src, merc, Options{From: WGS84, To: WebMercator})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, merc, res.Path)

	prj, err := os.ReadFile(res.PrjPath)
	require.NoError(t, err)
	assert.Equal(t, webMercatorWKT, string(prj))

	x, y := gisconvert.ProjectMercator(-114, 40)
	assert.InDelta(t, x, res.Extent.MinX, 1e-6)
	projected := points(t, merc)
	assert.InDelta(t, x, projected[0][0].X, 1e-6)
	assert.InDelta(t, y, projected[0][0].Y, 1e-6)

	_, err = Shapefile(merc, back, Options{From: WebMercator, To: WGS84})
	require.NoError(t, err)

	want := points(t, src)
	got := points(t, back)
	require.Len(t, got, len(want))
	for i := range want {
		for k := range want[i] {
			assert.InDelta(t, want[i][k].X, got[i][k].X, 1e-6)
			assert.InDelta(t, want[i][k].Y, got[i][k].Y, 1e-6)
		}
	}

	tbl, err := shapefile.OpenTable(back)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZONE", "ROW_"}, tbl.Header())
	assert.Equal(t, [][]interface{}{{"12T", int64(7)}, {"33F", int64(2)}}, tbl.Rows(0, 2))
}

func TestShapefileOutputExists(t *testing.T) {
	dir := t.TempDir()
	src := writeZones(t, dir)
	dst := filepath.Join(dir, "out.shp")

	_, err := Shapefile(src, dst, Options{From: WGS84, To: WebMercator})
	require.NoError(t, err)

	_, err = Shapefile(src, dst, Options{From: WGS84, To: WebMercator})
	assert.True(t, errors.Is(err, gisconvert.ErrOutputExists))

	res, err := Shapefile(src, dst, Options{From: WGS84, To: 900913, Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
}

func TestShapefileErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeZones(t, dir)

	_, err := Shapefile(src, filepath.Join(dir, "utm.shp"), Options{From: WGS84, To: 32633})
	assert.True(t, errors.Is(err, ErrUnsupportedTransform))

	_, err = Shapefile(filepath.Join(dir, "missing.shp"), filepath.Join(dir, "x.shp"), Options{From: WGS84, To: WebMercator})
	assert.True(t, errors.Is(err, gisconvert.ErrSourceNotFound))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(4326, 3857))
	assert.True(t, Supported(3857, 4326))
	assert.True(t, Supported(4326, 4326))
	assert.True(t, Supported(900913, 3857))
	assert.False(t, Supported(4326, 27700))
	assert.False(t, Supported(27700, 27700))
}

func TestESRIWKT(t *testing.T) {
	wkt, err := ESRIWKT(4326)
	require.NoError(t, err)
	assert.Contains(t, wkt, `GEOGCS["GCS_WGS_1984"`)

	wkt, err = ESRIWKT(3857)
	require.NoError(t, err)
	assert.Contains(t, wkt, `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere"`)

	_, err = ESRIWKT(2154)
	assert.True(t, errors.Is(err, ErrUnsupportedTransform))
}

func TestWritePrj(t *testing.T) {
	shpPath := filepath.Join(t.TempDir(), "UTM_Zone_Boundaries.shp")
	prj, err := WritePrj(shpPath, wgs84WKT)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(shpPath), "UTM_Zone_Boundaries.prj"), prj)

	raw, err := os.ReadFile(prj)
	require.NoError(t, err)
	assert.Equal(t, wgs84WKT, string(raw))

	upper := filepath.Join(t.TempDir(), "ZONES.SHP")
	prj, err = WritePrj(upper, wgs84WKT)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(upper), "ZONES.prj"), prj)
}

func TestShapefileKeepsCodePage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cafes.shp")
	require.NoError(t, shapefile.Write(src, shapefile.Layer{
		Type:       shp.POINT,
		Fields:     []shp.Field{shp.StringField("NAME", 4)},
		Shapes:     []shp.Shape{&shp.Point{X: 2.35, Y: 48.85}},
		Attributes: [][]string{{"caf\xe9"}},
		CodePage:   "1252",
	}))
	dst := filepath.Join(dir, "cafes_3857.shp")

	_, err := Shapefile(src, dst, Options{From: WGS84, To: WebMercator})
	require.NoError(t, err)

	cpg, err := os.ReadFile(filepath.Join(dir, "cafes_3857.cpg"))
	require.NoError(t, err)
	assert.Equal(t, "1252", string(cpg))

	raw, err := os.ReadFile(filepath.Join(dir, "cafes_3857.dbf"))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(raw, []byte("caf\xe9")))

	tbl, err := shapefile.OpenTable(dst)
	require.NoError(t, err)
	name, err := tbl.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "café", name)
}

func TestShapefileRemovesFailedOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeZones(t, dir)
	dst := filepath.Join(dir, "out.shp")

	// a directory in place of the .prj makes the last step fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out.prj"), 0o755))
	_, err := Shapefile(src, dst, Options{From: WGS84, To: WebMercator})
	require.Error(t, err)

	for _, name := range []string{"out.shp", "out.shx", "out.dbf", "outdbf"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}

	_, err = Shapefile(src, dst, Options{From: WGS84, To: WebMercator})
	assert.NoError(t, err)
}

func TestShapefileMeasures(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "route.shp")
	pts := []shp.Point{{X: -114, Y: 40}, {X: -113, Y: 41}}
	require.NoError(t, shapefile.Write(src, shapefile.Layer{
		Type:   shp.POLYLINEM,
		Fields: []shp.Field{shp.StringField("ROUTE", 8)},
		Shapes: []shp.Shape{&shp.PolyLineM{
			Box:       shp.BBoxFromPoints(pts),
			NumParts:  1,
			NumPoints: 2,
			Parts:     []int32{0},
			Points:    pts,
			MRange:    [2]float64{0, 12.5},
			MArray:    []float64{0, 12.5},
		}},
		Attributes: [][]string{{"I-15"}},
	}))
	dst := filepath.Join(dir, "route_3857.shp")

	res, err := Shapefile(src, dst, Options{From: WGS84, To: WebMercator})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)

	r, err := shapefile.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, "LINESTRINGM", r.GeometryName())

	line := r.Records()[0].Shape.(*shp.PolyLineM)
	x, y := gisconvert.ProjectMercator(-113, 41)
	assert.InDelta(t, x, line.Points[1].X, 1e-6)
	assert.InDelta(t, y, line.Points[1].Y, 1e-6)
	assert.Equal(t, []float64{0, 12.5}, line.MArray)
	assert.InDelta(t, x, line.Box.MaxX, 1e-6)

	route, err := r.Table().Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "I-15", route)
}
