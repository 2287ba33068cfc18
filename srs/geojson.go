// Package srs inspects the coordinate reference system of GeoJSON files,
// shapefiles and WMS layers, and fetches EPSG definitions as ESRI WKT.
package srs

import (
	"encoding/json"
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"
)

// DefaultGeoJSONCRS is the CRS assumed when a GeoJSON file declares none.
const DefaultGeoJSONCRS = "EPSG:4326"

// GeoJSONInfo describes the CRS of a GeoJSON document.
type GeoJSONInfo struct {
	// Found reports whether the document carries a crs member.
	Found bool
	// Name is the declared CRS name, or DefaultGeoJSONCRS.
	Name string
	// Type is the GeoJSON object type, e.g. FeatureCollection.
	Type string
	// Features is the feature count of a FeatureCollection.
	Features int
}

type crsMember struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type document struct {
	Type string     `json:"type"`
	CRS  *crsMember `json:"crs"`
}

// GeoJSONCRS reads a GeoJSON document and reports its crs member.
func GeoJSONCRS(r io.Reader) (*GeoJSONInfo, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("[json.Unmarshal] in pkg [srs] encountered: %w", err)
	}

	info := &GeoJSONInfo{Type: doc.Type, Name: DefaultGeoJSONCRS}
	if doc.CRS != nil {
		info.Found = true
		info.Name = doc.CRS.Properties.Name
	}

	if doc.Type == "FeatureCollection" {
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("[geojson.UnmarshalFeatureCollection] in pkg [srs] encountered: %w", err)
		}
		info.Features = len(fc.Features)
	}

	return info, nil
}
