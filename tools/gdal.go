package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/godeepar/gisconvert"
	"github.com/godeepar/gisconvert/config"
	"github.com/godeepar/gisconvert/shapefile"
)

// ErrNoStatistics indicates gdalinfo reported no band minimum or maximum.
var ErrNoStatistics = errors.New("tools: raster band has no min/max statistics")

// GDAL wraps gdal_translate, gdalinfo and gdal_polygonize.py.
type GDAL struct {
	Runner Runner
	Bins   config.Tools
	Logger *zap.Logger
}

// NewGDAL returns a GDAL wrapper using the binaries named in bins.
func NewGDAL(r Runner, bins config.Tools, logger *zap.Logger) *GDAL {
	return &GDAL{Runner: r, Bins: bins, Logger: nopIfNil(logger)}
}

// HeightmapJob describes a DEM -> 16 bit ENVI heightmap conversion.
type HeightmapJob struct {
	Source string
	// Temp is the intermediate GeoTIFF, next to Output when empty.
	Temp          string
	Output        string
	Width, Height int
	KeepTemp      bool
	Overwrite     bool
}

// Heightmap reports the statistics a heightmap was scaled with.
type Heightmap struct {
	Output       string
	BandType     string
	Min, Max     float64
	MinElevation int
	MaxElevation int
}

// Heightmap converts job.Source to a GeoTIFF, reads its first band min/max
// with gdalinfo, then scales it into the 0-65535 range of a UInt16 ENVI file.
func (g *GDAL) Heightmap(ctx context.Context, job HeightmapJob) (*Heightmap, error) {
	if err := gisconvert.RequireSource(job.Source); err != nil {
		return nil, err
	}
	if !job.Overwrite {
		if err := gisconvert.RequireAbsent(job.Output); err != nil {
			return nil, err
		}
	}

	temp := job.Temp
	if temp == "" {
		temp = filepath.Join(filepath.Dir(job.Output), "temp_image.tif")
	}
	if !job.KeepTemp {
		defer os.Remove(temp)
	}

	g.Logger.Info("converting dem to tiff", zap.String("source", job.Source), zap.String("tiff", temp))
	if _, err := g.Runner.Run(ctx, g.Bins.GDALTranslate, job.Source, temp); err != nil {
		return nil, fmt.Errorf("[Heightmap] dem to tiff in pkg [tools] encountered: %w", err)
	}

	out, err := g.Runner.Run(ctx, g.Bins.GDALInfo, "-json", "-mm", temp)
	if err != nil {
		return nil, fmt.Errorf("[Heightmap] gdalinfo in pkg [tools] encountered: %w", err)
	}
	band, err := firstBand(out)
	if err != nil {
		return nil, err
	}

	hm := &Heightmap{
		Output:       job.Output,
		BandType:     band.Type,
		Min:          band.min,
		Max:          band.max,
		MinElevation: int(math.Round(band.min)),
		MaxElevation: int(math.Round(band.max)),
	}
	g.Logger.Info("band statistics",
		zap.String("type", hm.BandType),
		zap.Float64("min", hm.Min),
		zap.Float64("max", hm.Max))

	if _, err := g.Runner.Run(ctx, g.Bins.GDALTranslate, envArgs(temp, job, hm)...); err != nil {
		return nil, fmt.Errorf("[Heightmap] tiff to envi in pkg [tools] encountered: %w", err)
	}

	return hm, nil
}

func envArgs(temp string, job HeightmapJob, hm *Heightmap) []string {
	return []string{
		"-scale", ftoa(hm.Min), ftoa(hm.Max), "0", "65535",
		"-ot", "UInt16",
		"-outsize", strconv.Itoa(job.Width), strconv.Itoa(job.Height),
		"-of", "ENVI",
		temp, job.Output,
	}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// gdalinfo -json output, reduced to the band statistics.
type gdalInfo struct {
	Bands []gdalBand `json:"bands"`
}

type gdalBand struct {
	Band        int      `json:"band"`
	Type        string   `json:"type"`
	Minimum     *float64 `json:"minimum"`
	Maximum     *float64 `json:"maximum"`
	ComputedMin *float64 `json:"computedMin"`
	ComputedMax *float64 `json:"computedMax"`

	min, max float64
}

// firstBand decodes gdalinfo -json output. Stored band statistics win over
// the computed ones.
func firstBand(raw []byte) (gdalBand, error) {
	var info gdalInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return gdalBand{}, fmt.Errorf("[json.Unmarshal] gdalinfo output in pkg [tools] encountered: %w", err)
	}
	if len(info.Bands) == 0 {
		return gdalBand{}, fmt.Errorf("%w: no bands", ErrNoStatistics)
	}

	b := info.Bands[0]
	lo, hi := b.Minimum, b.Maximum
	if lo == nil || hi == nil {
		lo, hi = b.ComputedMin, b.ComputedMax
	}
	if lo == nil || hi == nil {
		return gdalBand{}, ErrNoStatistics
	}
	b.min, b.max = *lo, *hi
	return b, nil
}

// PolygonizeJob describes a raster band -> polygon shapefile conversion.
type PolygonizeJob struct {
	Source string
	Dest   string
	Band   int
	// Layer defaults to the base name of Dest.
	Layer     string
	Overwrite bool
}

// Polygons summarizes a polygonized shapefile.
type Polygons struct {
	Path     string
	Features int
	// Area is the total planar area in the units of the raster.
	Area   float64
	Extent gisconvert.Extent
}

// Polygonize vectorizes one band of job.Source into a shapefile and
// summarizes the result.
func (g *GDAL) Polygonize(ctx context.Context, job PolygonizeJob) (*Polygons, error) {
	if err := gisconvert.RequireSource(job.Source); err != nil {
		return nil, err
	}
	if job.Overwrite {
		if err := shapefile.Remove(job.Dest); err != nil {
			return nil, err
		}
	} else if err := gisconvert.RequireAbsent(job.Dest); err != nil {
		return nil, err
	}

	band := job.Band
	if band <= 0 {
		band = 1
	}
	layer := job.Layer
	if layer == "" {
		layer = strings.TrimSuffix(filepath.Base(job.Dest), filepath.Ext(job.Dest))
	}

	args := []string{job.Source, "-b", strconv.Itoa(band), "-f", formatShapefile, job.Dest, layer}
	g.Logger.Info("polygonizing raster", zap.String("source", job.Source), zap.Int("band", band))
	if _, err := g.Runner.Run(ctx, g.Bins.GDALPolygonize, args...); err != nil {
		return nil, fmt.Errorf("[Polygonize] in pkg [tools] encountered: %w", err)
	}

	r, err := shapefile.Open(job.Dest)
	if err != nil {
		return nil, err
	}
	res := &Polygons{Path: r.Path, Features: r.Len(), Extent: r.Extent()}
	for _, rec := range r.Records() {
		res.Area += shapefile.Area(rec.Shape)
	}
	return res, nil
}
