package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godeepar/gisconvert/postgis"
	"github.com/godeepar/gisconvert/tools"
)

var (
	pgConn         string
	pgSchema       string
	pgGeometry     string
	pgSkipFailures bool
	pgPromoteMulti bool
	pgDiscover     bool
	pgDest         string
)

var shp2PostGISCmd = &cobra.Command{
	Use:   "shp2postgis [shapefile]",
	Short: "Load one shapefile into PostGIS with ogr2ogr",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShp2PostGIS,
}

var batchShp2PostGISCmd = &cobra.Command{
	Use:   "batch-shp2postgis [directory]",
	Short: "Load every shapefile of a directory into PostGIS",
	Long: `Loads every *.shp of the directory with ogr2ogr. The -nlt geometry type of
each file is read from its header. Every file is attempted; the command fails
if any import failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatchShp2PostGIS,
}

var batchPostGIS2ShpCmd = &cobra.Command{
	Use:   "batch-postgis2shp [table...]",
	Short: "Dump PostGIS tables to shapefiles in a new directory",
	Long: `Dumps each table with ogr2ogr into the destination directory, which must
not exist yet. Without table arguments the configured tables are used, or with
--discover every spatial table of the active schema.`,
	RunE: runBatchPostGIS2Shp,
}

func init() {
	for _, c := range []*cobra.Command{shp2PostGISCmd, batchShp2PostGISCmd, batchPostGIS2ShpCmd} {
		c.Flags().StringVar(&pgConn, "conn", "", "OGR PG: connection string (default from config)")
	}
	for _, c := range []*cobra.Command{shp2PostGISCmd, batchShp2PostGISCmd} {
		c.Flags().StringVar(&pgSchema, "schema", "", "target schema (default from config)")
		c.Flags().BoolVar(&pgPromoteMulti, "promote-multi", false, "load lines and polygons as their MULTI type")
	}
	shp2PostGISCmd.Flags().StringVar(&pgGeometry, "geometry", "", "ogr2ogr -nlt geometry type (default from config, DISCOVER to read the file)")
	shp2PostGISCmd.Flags().BoolVar(&pgSkipFailures, "skip-failures", false, "pass -skipfailures to ogr2ogr")
	batchPostGIS2ShpCmd.Flags().BoolVar(&pgDiscover, "discover", false, "list spatial tables from geometry_columns")
	batchPostGIS2ShpCmd.Flags().StringVar(&pgDest, "dest", "", "destination directory (default from config)")
}

func ogr() *tools.Ogr2Ogr {
	return tools.NewOgr2Ogr(newRunner(), cfg.Tools.Ogr2Ogr, logger)
}

func importJob() tools.PostGISImport {
	return tools.PostGISImport{
		Connection:     strOr(pgConn, cfg.Postgis.Connection),
		Schema:         strOr(pgSchema, cfg.Postgis.Schema),
		Overwrite:      cfg.Postgis.Overwrite,
		SkipFailures:   cfg.Postgis.SkipFailures,
		PromoteToMulti: pgPromoteMulti,
	}
}

func runShp2PostGIS(cmd *cobra.Command, args []string) error {
	job := importJob()
	job.Source = argOr(args, 0, cfg.Paths.Shapefile)
	job.GeometryType = strOr(pgGeometry, cfg.Postgis.GeometryType)
	if job.GeometryType == "DISCOVER" {
		job.GeometryType = ""
	}
	job.SkipFailures = job.SkipFailures || pgSkipFailures

	res, err := ogr().ImportShapefile(commandContext(cmd), job)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "import shapefile: %s (%s)\n", res.Source, res.Geometry)
	return nil
}

func runBatchShp2PostGIS(cmd *cobra.Command, args []string) error {
	dir := argOr(args, 0, cfg.Paths.ShapefileDir)
	job := importJob()
	job.SkipFailures = true

	imported, err := ogr().ImportDirectory(commandContext(cmd), dir, job)
	for _, res := range imported {
		fmt.Fprintf(cmd.OutOrStdout(), "import shapefile: %s (%s)\n", res.Source, res.Geometry)
	}
	return err
}

func runBatchPostGIS2Shp(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	conn := strOr(pgConn, cfg.Postgis.ExportConnection)

	tables := args
	if len(tables) == 0 && pgDiscover {
		db, err := postgis.Open(ctx, conn)
		if err != nil {
			return err
		}
		defer db.Close()

		schema := postgis.Schema(conn)
		if schema == "" {
			schema = cfg.Postgis.Schema
		}
		found, err := postgis.ListTables(ctx, db, schema)
		if err != nil {
			return err
		}
		tables = postgis.Names(found)
		logger.Info("discovered spatial tables", zap.String("schema", schema), zap.Strings("tables", tables))
	}
	if len(tables) == 0 {
		tables = cfg.Postgis.Tables
	}

	exported, err := ogr().ExportTables(ctx, tools.PostGISExport{
		Connection:  conn,
		Destination: strOr(pgDest, cfg.Paths.ExportDir),
		Tables:      tables,
	})
	for _, table := range exported {
		fmt.Fprintf(cmd.OutOrStdout(), "exported table: %s\n", table)
	}
	return err
}
