// Command gisconvert runs one-off GIS conversions: shapefile inspection,
// lattice weights, shapefile <-> PostGIS transfers, DEM heightmaps, raster
// polygonizing, reprojection and CRS lookups.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/godeepar/gisconvert/config"
	"github.com/godeepar/gisconvert/tools"
)

var (
	// Global flags
	verbose bool
	cfgFile string

	cfg    *config.Config
	logger *zap.Logger

	// newRunner builds the subprocess runner used by the GDAL/OGR commands.
	newRunner = func() tools.Runner { return tools.NewExecRunner(logger) }
)

var rootCmd = &cobra.Command{
	Use:   "gisconvert",
	Short: "One-off GIS conversions driven by GDAL/OGR and PostGIS",
	Long: `gisconvert bundles small GIS conversions behind one CLI.

Every command falls back to the paths and connection strings of the
configuration file (--config) when arguments are omitted. External work is
delegated to ogr2ogr, gdal_translate, gdalinfo and gdal_polygonize.py, which
must be on PATH or configured under "tools".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = buildLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded", zap.String("file", cfgFile))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(debug bool) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	if debug {
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	// human readable logs on a terminal, json otherwise
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logConfig.Encoding = "console"
		logConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return logConfig.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML configuration file")

	rootCmd.AddCommand(
		shpInfoCmd,
		weightsCmd,
		shp2GeoJSONCmd,
		shp2PostGISCmd,
		batchShp2PostGISCmd,
		batchPostGIS2ShpCmd,
		dem2HeightmapCmd,
		raster2ShpCmd,
		reprojectCmd,
		srsCmd,
		prjCmd,
	)
}

// argOr returns args[i], or def when it was not given.
func argOr(args []string, i int, def string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return def
}

func strOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
