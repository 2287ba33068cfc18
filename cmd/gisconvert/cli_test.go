package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godeepar/gisconvert"
	"github.com/godeepar/gisconvert/config"
	"github.com/godeepar/gisconvert/shapefile"
	"github.com/godeepar/gisconvert/tools"
	"github.com/godeepar/gisconvert/weights"
)

type recorded struct {
	name string
	args []string
}

type recordingRunner struct {
	calls  []recorded
	output map[string][]byte
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, recorded{name: name, args: args})
	return r.output[name], nil
}

// setup resets the command globals and returns a command writing to out.
func setup(t *testing.T) (*cobra.Command, *bytes.Buffer, *recordingRunner) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.Default()

	weightsRows, weightsCols, weightsQueen, weightsTransform = 0, 0, false, ""
	geojsonCRS, geojsonOverwrite = "", false
	pgConn, pgSchema, pgGeometry, pgDest = "", "", "", ""
	pgSkipFailures, pgPromoteMulti, pgDiscover = false, false, false
	hmOut, hmTemp, hmWidth, hmHeight, hmKeepTemp, hmOverwrite = "", "", 0, 0, false, false
	polyOut, polyBand, polyLayer, polyOverwrite = "", 0, "", false
	reprojFrom, reprojTo, reprojOverwrite = 0, 0, false
	wmsList = false
	prjEPSG, prjBuiltin = 0, false

	fake := &recordingRunner{output: map[string][]byte{}}
	prev := newRunner
	newRunner = func() tools.Runner { return fake }
	t.Cleanup(func() { newRunner = prev })

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	return cmd, out, fake
}

func writeParks(t *testing.T, dir string) string {
	t.Helper()
	ring := []shp.Point{{X: -123.2, Y: 49.2}, {X: -123.2, Y: 49.3}, {X: -123.1, Y: 49.3}, {X: -123.1, Y: 49.2}, {X: -123.2, Y: 49.2}}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
	path := filepath.Join(dir, "parks.shp")
	require.NoError(t, shapefile.Write(path, shapefile.Layer{
		Type:       shp.POLYGON,
		Fields:     []shp.Field{shp.StringField("NAME", 16), shp.NumberField("HA", 6)},
		Shapes:     []shp.Shape{&poly},
		Attributes: [][]string{{"Stanley", "405"}},
	}))
	return path
}

func TestWeightsCommand(t *testing.T) {
	cmd, out, _ := setup(t)

	require.NoError(t, runWeights(cmd, nil))
	assert.Equal(t, `criterion: ROOK
n: 25
pct_nonzero: 0.128
weights[0]: [1 1]
neighbors[0]: [5 1]
neighbors[5]: [0 10 6]
histogram: [(2, 4), (3, 12), (4, 9)]
`, out.String())
}

func TestWeightsCommandQueenRowStandardized(t *testing.T) {
	cmd, out, _ := setup(t)
	addWeightsFlags(cmd)
	require.NoError(t, cmd.Flags().Set("rows", "3"))
	require.NoError(t, cmd.Flags().Set("cols", "3"))
	require.NoError(t, cmd.Flags().Set("queen", "true"))
	require.NoError(t, cmd.Flags().Set("transform", "r"))

	require.NoError(t, runWeights(cmd, nil))
	assert.Contains(t, out.String(), "criterion: QUEEN\n")
	assert.Contains(t, out.String(), "n: 9\n")
	assert.Contains(t, out.String(), "histogram: [(3, 4), (4, 0), (5, 4), (6, 0), (7, 0), (8, 1)]\n")

	require.NoError(t, cmd.Flags().Set("transform", "X"))
	assert.Error(t, runWeights(cmd, nil))
}

func TestWeightsCommandFlagsOverrideConfig(t *testing.T) {
	cmd, out, _ := setup(t)
	addWeightsFlags(cmd)
	cfg.Weights.Queen = true

	require.NoError(t, runWeights(cmd, nil))
	assert.Contains(t, out.String(), "criterion: QUEEN\n")

	out.Reset()
	require.NoError(t, cmd.Flags().Set("queen", "false"))
	require.NoError(t, runWeights(cmd, nil))
	assert.Contains(t, out.String(), "criterion: ROOK\n")

	require.NoError(t, cmd.Flags().Set("rows", "0"))
	err := runWeights(cmd, nil)
	assert.True(t, errors.Is(err, weights.ErrInvalidDimensions), "got %v", err)
}

func TestShpInfoCommand(t *testing.T) {
	cmd, out, _ := setup(t)
	path := writeParks(t, t.TempDir())

	require.NoError(t, runShpInfo(cmd, []string{path}))
	assert.Contains(t, out.String(), "geometry: POLYGON\n")
	assert.Contains(t, out.String(), "records: 1\n")
	assert.Contains(t, out.String(), "last id: 1\n")
	assert.Contains(t, out.String(), "center: -123.15 49.25\n")
	assert.Contains(t, out.String(), "extent 3857: -13714561.27 ")
	assert.Contains(t, out.String(), "header: [NAME HA]\n")
	assert.Contains(t, out.String(), "field_spec: [('C', 16, 0), ('N', 6, 0)]\n")
	assert.Contains(t, out.String(), "[0]: [Stanley 405]\n")
	assert.Contains(t, out.String(), "[-1,-1]: 405\n")

	cfg.Paths.Shapefile = filepath.Join(t.TempDir(), "missing.shp")
	assert.True(t, errors.Is(runShpInfo(cmd, nil), gisconvert.ErrSourceNotFound))
}

func TestShp2GeoJSONCommand(t *testing.T) {
	cmd, _, _ := setup(t)
	dir := t.TempDir()
	src := writeParks(t, dir)
	dst := filepath.Join(dir, "parks.geojson")
	geojsonCRS = "EPSG:4326"

	require.NoError(t, runShp2GeoJSON(cmd, []string{src, dst}))

	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Stanley", fc.Features[0].Properties["NAME"])

	err = runShp2GeoJSON(cmd, []string{src, dst})
	assert.True(t, errors.Is(err, gisconvert.ErrOutputExists))

	geojsonOverwrite = true
	assert.NoError(t, runShp2GeoJSON(cmd, []string{src, dst}))
}

func TestShp2PostGISCommand(t *testing.T) {
	cmd, out, fake := setup(t)
	src := filepath.Join(t.TempDir(), "bikeways.shp")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	require.NoError(t, runShp2PostGIS(cmd, []string{src}))
	require.Len(t, fake.calls, 1)
	assert.Equal(t, cfg.Tools.Ogr2Ogr, fake.calls[0].name)
	assert.Equal(t, []string{
		"-lco", "SCHEMA=public", "-lco", "OVERWRITE=YES",
		"-nlt", "MULTILINESTRING", "-f", "PostgreSQL", cfg.Postgis.Connection, src,
	}, fake.calls[0].args)
	assert.Equal(t, "import shapefile: "+src+" (MULTILINESTRING)\n", out.String())
}

func TestBatchShp2PostGISCommand(t *testing.T) {
	cmd, out, fake := setup(t)
	dir := t.TempDir()
	writeParks(t, dir)
	pgPromoteMulti = true

	require.NoError(t, runBatchShp2PostGIS(cmd, []string{dir}))
	require.Len(t, fake.calls, 1)
	assert.Contains(t, fake.calls[0].args, "MULTIPOLYGON")
	assert.Contains(t, fake.calls[0].args, "-skipfailures")
	assert.Contains(t, out.String(), "(MULTIPOLYGON)")
}

func TestBatchPostGIS2ShpCommand(t *testing.T) {
	cmd, out, fake := setup(t)
	pgDest = filepath.Join(t.TempDir(), "temp")

	require.NoError(t, runBatchPostGIS2Shp(cmd, nil))
	require.Len(t, fake.calls, 2)
	assert.Equal(t, []string{"-f", "ESRI Shapefile", pgDest, cfg.Postgis.ExportConnection, "bikeways"}, fake.calls[0].args)
	assert.Equal(t, "exported table: bikeways\nexported table: highest_mountains\n", out.String())

	err := runBatchPostGIS2Shp(cmd, []string{"roads"})
	assert.True(t, errors.Is(err, gisconvert.ErrOutputExists))
}

func TestDem2HeightmapCommand(t *testing.T) {
	cmd, out, fake := setup(t)
	dir := t.TempDir()
	dem := filepath.Join(dir, "original_dem.asc")
	require.NoError(t, os.WriteFile(dem, []byte("ncols 2"), 0o644))
	fake.output[cfg.Tools.GDALInfo] = []byte(`{"bands":[{"band":1,"type":"Float32","computedMin":1,"computedMax":9.5}]}`)
	hmOut = filepath.Join(dir, "final_envi.bin")
	hmTemp = filepath.Join(dir, "temp_image.tif")

	require.NoError(t, runDem2Heightmap(cmd, []string{dem}))
	assert.Contains(t, out.String(), "Band Type = Float32\n")
	assert.Contains(t, out.String(), "Min = 1.000, Max = 9.500\n")
	assert.Contains(t, out.String(), "elevation: 1 to 10\n")

	require.Len(t, fake.calls, 3)
	assert.Contains(t, fake.calls[2].args, "500")
}

func TestReprojectCommand(t *testing.T) {
	cmd, out, fake := setup(t)
	dir := t.TempDir()
	src := writeParks(t, dir)
	dst := filepath.Join(dir, "parks_3857.shp")

	require.NoError(t, runReproject(cmd, []string{src, dst}))
	assert.Contains(t, out.String(), "reprojected 1 records to "+dst+" (EPSG:3857)\n")
	assert.FileExists(t, filepath.Join(dir, "parks_3857.prj"))
	assert.Empty(t, fake.calls)

	// pairs without a native transform go through ogr2ogr
	reprojTo = 26910
	utm := filepath.Join(dir, "parks_utm.shp")
	require.NoError(t, runReproject(cmd, []string{src, utm}))
	require.Len(t, fake.calls, 1)
	assert.Equal(t, []string{"-s_srs", "EPSG:4326", "-t_srs", "EPSG:26910", "-f", "ESRI Shapefile", utm, src}, fake.calls[0].args)
}

func TestSRSCommands(t *testing.T) {
	cmd, out, _ := setup(t)
	dir := t.TempDir()

	gj := filepath.Join(dir, "golfcourses_bc.geojson")
	require.NoError(t, os.WriteFile(gj, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	require.NoError(t, runSRSGeoJSON(cmd, []string{gj}))
	assert.Equal(t, "no crs tag in the file\nassume EPSG:4326\nCurrent GeoJSON data type is : FeatureCollection\n", out.String())

	out.Reset()
	src := writeParks(t, dir)
	require.NoError(t, runSRSShapefile(cmd, []string{src}))
	assert.Equal(t, "None\n", out.String())

	out.Reset()
	prjBuiltin = true
	require.NoError(t, runPrj(cmd, []string{src}))
	assert.Equal(t, "Done writing projection definition.\n", out.String())

	out.Reset()
	require.NoError(t, runSRSShapefile(cmd, []string{src}))
	assert.Contains(t, out.String(), "GEOGCS GCS_WGS_1984\n")
}

func TestPrjFetch(t *testing.T) {
	cmd, _, _ := setup(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`PROJCS["NAD_1983_UTM_Zone_10N"]`))
	}))
	defer srv.Close()

	cfg.EPSG.URLTemplate = srv.URL + "/ref/epsg/%d/esriwkt/"
	prjEPSG = 26910
	shpPath := filepath.Join(t.TempDir(), "UTM_Zone_Boundaries.shp")

	require.NoError(t, runPrj(cmd, []string{shpPath}))
	raw, err := os.ReadFile(filepath.Join(filepath.Dir(shpPath), "UTM_Zone_Boundaries.prj"))
	require.NoError(t, err)
	assert.Equal(t, `PROJCS["NAD_1983_UTM_Zone_10N"]`, string(raw))
}

func TestSRSWMSCommand(t *testing.T) {
	cmd, out, _ := setup(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<WMT_MS_Capabilities version="1.1.1"><Capability><Layer>
<SRS>EPSG:4326</SRS>
<Layer><Name>GBR_Kilmarnock_BGS_50K_CompressibleGround</Name><SRS>EPSG:27700</SRS></Layer>
</Layer></Capability></WMT_MS_Capabilities>`))
	}))
	defer srv.Close()

	cfg.WMS.URL = srv.URL
	require.NoError(t, runSRSWMS(cmd, nil))
	assert.Equal(t, "[EPSG:4326 EPSG:27700]\n", out.String())

	out.Reset()
	wmsList = true
	require.NoError(t, runSRSWMS(cmd, nil))
	assert.Equal(t, "GBR_Kilmarnock_BGS_50K_CompressibleGround: EPSG:4326 EPSG:27700\n", out.String())
}

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"shpinfo", "weights", "shp2geojson", "shp2postgis", "batch-shp2postgis",
		"batch-postgis2shp", "dem2heightmap", "raster2shp", "reproject", "srs", "prj",
	} {
		assert.True(t, names[want], want)
	}
}
