// Package config holds the YAML configuration of the gisconvert commands.
// Default returns the paths, connection strings and names the commands fall
// back to when no configuration file is given.
package config

import (
	"fmt"
	"os"
	"runtime"

	yaml "gopkg.in/yaml.v2"
)

// Config is the full configuration of the gisconvert commands.
type Config struct {
	Postgis   Postgis   `yaml:"postgis"`
	Paths     Paths     `yaml:"paths"`
	Tools     Tools     `yaml:"tools"`
	Raster    Raster    `yaml:"raster"`
	Reproject Reproject `yaml:"reproject"`
	WMS       WMS       `yaml:"wms"`
	EPSG      EPSG      `yaml:"epsg"`
	Weights   Weights   `yaml:"weights"`
}

// Postgis describes the database side of the shapefile import and export.
type Postgis struct {
	// Connection is an OGR "PG:" connection string.
	Connection       string   `yaml:"connection"`
	ExportConnection string   `yaml:"exportConnection"`
	Schema           string   `yaml:"schema"`
	Overwrite        bool     `yaml:"overwrite"`
	GeometryType     string   `yaml:"geometryType"`
	SkipFailures     bool     `yaml:"skipFailures"`
	Tables           []string `yaml:"tables"`
}

// Paths holds the default input and output files of each command.
type Paths struct {
	Shapefile       string `yaml:"shapefile"`
	ShapefileDir    string `yaml:"shapefileDir"`
	ExportDir       string `yaml:"exportDir"`
	DEM             string `yaml:"dem"`
	TempTiff        string `yaml:"tempTiff"`
	HeightmapOut    string `yaml:"heightmapOut"`
	Raster          string `yaml:"raster"`
	PolygonizeOut   string `yaml:"polygonizeOut"`
	ReprojectSource string `yaml:"reprojectSource"`
	ReprojectDest   string `yaml:"reprojectDest"`
	PrjShapefile    string `yaml:"prjShapefile"`
	GeoJSON         string `yaml:"geojson"`
	SRSShapefile    string `yaml:"srsShapefile"`
}

// Tools names the external binaries. Bare names are resolved on PATH.
type Tools struct {
	Ogr2Ogr        string `yaml:"ogr2ogr"`
	GDALTranslate  string `yaml:"gdalTranslate"`
	GDALInfo       string `yaml:"gdalInfo"`
	GDALPolygonize string `yaml:"gdalPolygonize"`
}

// Raster sizes the heightmap and picks the band to polygonize.
type Raster struct {
	// Width and Height size the heightmap in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Band is the band polygonized by raster2shp.
	Band int `yaml:"band"`
}

// Reproject holds the default source and target EPSG codes.
type Reproject struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// WMS names the service and layer inspected by srs wms.
type WMS struct {
	URL   string `yaml:"url"`
	Layer string `yaml:"layer"`
}

// EPSG configures the lookup of projection WKT by EPSG code.
type EPSG struct {
	// URLTemplate takes the EPSG code as its only verb.
	URLTemplate string `yaml:"urlTemplate"`
	Proxy       string `yaml:"proxy"`
	Code        int    `yaml:"code"`
}

// Weights holds the default lattice of the weights command.
type Weights struct {
	Rows   int    `yaml:"rows"`
	Cols   int    `yaml:"cols"`
	Queen  bool   `yaml:"queen"`
	Scheme string `yaml:"scheme"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultFor(runtime.GOOS)
}

func defaultFor(goos string) *Config {
	c := &Config{
		Postgis: Postgis{
			Connection:       "PG:host=localhost port=5432 user=calvin dbname=py_test password=password",
			ExportConnection: "PG:host=localhost port=5432 user=calvin dbname=py_test password=password active_schema=public",
			Schema:           "public",
			Overwrite:        true,
			GeometryType:     "MULTILINESTRING",
			Tables:           []string{"bikeways", "highest_mountains"},
		},
		Paths: Paths{
			Shapefile:       "../geodata/shp/bikeways.shp",
			ShapefileDir:    "../geodata/shp",
			ExportDir:       "../geodata/temp",
			DEM:             "../geodata/original_dem.asc",
			TempTiff:        "../geodata/temp_image.tif",
			HeightmapOut:    "../geodata/final_envi.bin",
			Raster:          "../geodata/cadaster_borders-2tone-black-white.png",
			PolygonizeOut:   "../geodata/cadaster_raster.shp",
			ReprojectSource: "../geodata/shp/UTM_Zone_Boundaries.shp",
			ReprojectDest:   "../geodata/UTM_Zone_Boundaries_3857.shp",
			PrjShapefile:    "../geodata/UTM_Zone_Boundaries.shp",
			GeoJSON:         "../geodata/geojson/schools.geojson",
			SRSShapefile:    "../geodata/schools.shp",
		},
		Tools: Tools{
			Ogr2Ogr:        "ogr2ogr",
			GDALTranslate:  "gdal_translate",
			GDALInfo:       "gdalinfo",
			GDALPolygonize: "gdal_polygonize.py",
		},
		Raster:    Raster{Width: 500, Height: 500, Band: 3},
		Reproject: Reproject{From: 4326, To: 3857},
		WMS: WMS{
			URL:   "http://ogc.bgs.ac.uk/cgi-bin/BGS_1GE_Geology/wms",
			Layer: "GBR_Kilmarnock_BGS_50K_CompressibleGround",
		},
		EPSG: EPSG{
			URLTemplate: "http://spatialreference.org/ref/epsg/%d/esriwkt/",
			Code:        4326,
		},
		Weights: Weights{Rows: 5, Cols: 5, Scheme: "O"},
	}

	if goos == "windows" {
		c.Tools.Ogr2Ogr = "c:/OSGeo4W/bin/ogr2ogr.exe"
		c.Tools.GDALTranslate = "c:/OSGeo4W/bin/gdal_translate.exe"
		c.Tools.GDALInfo = "c:/OSGeo4W/bin/gdalinfo.exe"
		c.Tools.GDALPolygonize = "c:/OSGeo4W/bin/gdal_polygonize.py"
	}

	return c
}

// Load reads the YAML file at path over the defaults. Keys missing from the
// file keep their default value.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[os.ReadFile] in pkg [config] encountered: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("[yaml.Unmarshal] in pkg [config] encountered: %w", err)
	}
	return c, nil
}
