package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := defaultFor("linux")
	assert.Equal(t, "ogr2ogr", c.Tools.Ogr2Ogr)
	assert.Equal(t, "gdal_translate", c.Tools.GDALTranslate)
	assert.Equal(t, []string{"bikeways", "highest_mountains"}, c.Postgis.Tables)
	assert.Equal(t, 4326, c.Reproject.From)
	assert.Equal(t, 3857, c.Reproject.To)
	assert.Equal(t, 500, c.Raster.Width)
	assert.Equal(t, "GBR_Kilmarnock_BGS_50K_CompressibleGround", c.WMS.Layer)

	win := defaultFor("windows")
	assert.Equal(t, "c:/OSGeo4W/bin/gdal_translate.exe", win.Tools.GDALTranslate)
	assert.Equal(t, "c:/OSGeo4W/bin/gdalinfo.exe", win.Tools.GDALInfo)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gisconvert.yaml")
	doc := `
postgis:
  schema: staging
  tables: [roads]
raster:
  width: 1024
wms:
  layer: GBR_Other
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", c.Postgis.Schema)
	assert.Equal(t, []string{"roads"}, c.Postgis.Tables)
	assert.Equal(t, 1024, c.Raster.Width)
	assert.Equal(t, 500, c.Raster.Height)
	assert.Equal(t, "GBR_Other", c.WMS.Layer)
	assert.Equal(t, Default().WMS.URL, c.WMS.URL)
	assert.Equal(t, Default().Postgis.Connection, c.Postgis.Connection)
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("postgis: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
