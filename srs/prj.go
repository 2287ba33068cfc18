package srs

import (
	"os"
	"regexp"
	"strings"

	"github.com/godeepar/gisconvert"
	"github.com/godeepar/gisconvert/shapefile"
)

var wktName = regexp.MustCompile(`^\s*(PROJCS|GEOGCS|GEOCCS|COMPD_CS|VERT_CS|LOCAL_CS)\s*\[\s*"([^"]*)"`)

// ShapefileInfo describes the .prj sidecar of a shapefile.
type ShapefileInfo struct {
	// Found is false when the shapefile has no .prj.
	Found bool
	Path  string
	WKT   string
	// Kind is the WKT root keyword, PROJCS or GEOGCS usually.
	Kind string
	Name string
}

// ShapefileSRS reads the projection of the shapefile at path.
func ShapefileSRS(path string) (*ShapefileInfo, error) {
	shp := shapefile.ShapePath(path)
	if err := gisconvert.RequireSource(shp); err != nil {
		return nil, err
	}

	info := &ShapefileInfo{Path: shapefile.BasePath(shp) + ".prj"}
	raw, err := os.ReadFile(info.Path)
	if os.IsNotExist(err) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}

	info.Found = true
	info.WKT = strings.TrimSpace(string(raw))
	if m := wktName.FindStringSubmatch(info.WKT); m != nil {
		info.Kind, info.Name = m[1], m[2]
	}
	return info, nil
}
