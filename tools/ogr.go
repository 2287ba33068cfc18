package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/godeepar/gisconvert"
	"github.com/godeepar/gisconvert/shapefile"
)

const (
	formatPostgreSQL = "PostgreSQL"
	formatShapefile  = "ESRI Shapefile"
)

// Ogr2Ogr wraps the ogr2ogr binary.
type Ogr2Ogr struct {
	Runner Runner
	Binary string
	Logger *zap.Logger
}

// NewOgr2Ogr returns an ogr2ogr wrapper. An empty binary means "ogr2ogr".
func NewOgr2Ogr(r Runner, binary string, logger *zap.Logger) *Ogr2Ogr {
	if binary == "" {
		binary = "ogr2ogr"
	}
	return &Ogr2Ogr{Runner: r, Binary: binary, Logger: nopIfNil(logger)}
}

// PostGISImport describes one shapefile -> PostGIS load.
type PostGISImport struct {
	Source string
	// Connection is an OGR "PG:" connection string.
	Connection string
	Schema     string
	Overwrite  bool
	// GeometryType is the -nlt value. Empty means discovered from the file.
	GeometryType   string
	SkipFailures   bool
	PromoteToMulti bool
}

// Imported reports the geometry type a shapefile was loaded with.
type Imported struct {
	Source   string
	Geometry string
}

// PostGISExport describes a PostGIS -> shapefile dump of several tables.
type PostGISExport struct {
	Connection  string
	Destination string
	Tables      []string
}

// ReprojectJob describes an ogr2ogr reprojection between two EPSG codes.
type ReprojectJob struct {
	Source    string
	Dest      string
	From, To  int
	Overwrite bool
}

// ImportShapefile loads one shapefile into PostGIS.
func (o *Ogr2Ogr) ImportShapefile(ctx context.Context, job PostGISImport) (Imported, error) {
	if err := gisconvert.RequireSource(job.Source); err != nil {
		return Imported{}, err
	}

	geom := job.GeometryType
	if geom == "" {
		discovered, err := shapefile.DiscoverGeometry(job.Source)
		if err != nil {
			return Imported{}, err
		}
		geom = discovered
	}
	if job.PromoteToMulti {
		geom = shapefile.PromoteToMulti(geom)
	}

	o.Logger.Info("importing shapefile",
		zap.String("source", job.Source),
		zap.String("geometry", geom),
		zap.String("schema", job.Schema))

	if _, err := o.Runner.Run(ctx, o.Binary, importArgs(job, geom)...); err != nil {
		return Imported{}, fmt.Errorf("[ImportShapefile] %s in pkg [tools] encountered: %w", job.Source, err)
	}
	return Imported{Source: job.Source, Geometry: geom}, nil
}

func importArgs(job PostGISImport, geom string) []string {
	args := []string{"-lco", "SCHEMA=" + job.Schema}
	if job.Overwrite {
		args = append(args, "-lco", "OVERWRITE=YES")
	}
	args = append(args, "-nlt", geom)
	if job.SkipFailures {
		args = append(args, "-skipfailures")
	}
	return append(args, "-f", formatPostgreSQL, job.Connection, job.Source)
}

// ImportDirectory loads every shapefile of dir, in name order, discovering
// the geometry type of each. Every file is attempted; the failures are
// joined into the returned error.
func (o *Ogr2Ogr) ImportDirectory(ctx context.Context, dir string, job PostGISImport) ([]Imported, error) {
	if err := gisconvert.RequireSource(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("[os.ReadDir] in pkg [tools] encountered: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".shp") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	var imported []Imported
	var errs []error
	for _, file := range files {
		one := job
		one.Source = file
		one.GeometryType = ""

		res, err := o.ImportShapefile(ctx, one)
		if err != nil {
			o.Logger.Error("import failed", zap.String("source", file), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		imported = append(imported, res)
	}

	return imported, errors.Join(errs...)
}

// ExportTables dumps each table to a shapefile in job.Destination, which
// must not exist yet. Every table is attempted; the failures are joined.
func (o *Ogr2Ogr) ExportTables(ctx context.Context, job PostGISExport) ([]string, error) {
	if err := gisconvert.RequireAbsent(job.Destination); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(job.Destination, 0o755); err != nil {
		return nil, fmt.Errorf("[os.MkdirAll] in pkg [tools] encountered: %w", err)
	}

	var exported []string
	var errs []error
	for _, table := range job.Tables {
		o.Logger.Info("running ogr2ogr on table", zap.String("table", table))
		args := []string{"-f", formatShapefile, job.Destination, job.Connection, table}
		if _, err := o.Runner.Run(ctx, o.Binary, args...); err != nil {
			errs = append(errs, fmt.Errorf("[ExportTables] %s in pkg [tools] encountered: %w", table, err))
			continue
		}
		exported = append(exported, table)
	}

	return exported, errors.Join(errs...)
}

// Reproject rewrites a shapefile from one EPSG code to another.
func (o *Ogr2Ogr) Reproject(ctx context.Context, job ReprojectJob) error {
	if err := gisconvert.RequireSource(job.Source); err != nil {
		return err
	}
	if !job.Overwrite {
		if err := gisconvert.RequireAbsent(job.Dest); err != nil {
			return err
		}
	}

	args := []string{
		"-s_srs", epsg(job.From),
		"-t_srs", epsg(job.To),
		"-f", formatShapefile,
	}
	if job.Overwrite {
		args = append(args, "-overwrite")
	}
	args = append(args, job.Dest, job.Source)

	o.Logger.Info("reprojecting with ogr2ogr",
		zap.String("source", job.Source),
		zap.Int("from", job.From),
		zap.Int("to", job.To))

	if _, err := o.Runner.Run(ctx, o.Binary, args...); err != nil {
		return fmt.Errorf("[Reproject] in pkg [tools] encountered: %w", err)
	}
	return nil
}

func epsg(code int) string {
	return "EPSG:" + strconv.Itoa(code)
}
