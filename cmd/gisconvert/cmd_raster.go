package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/godeepar/gisconvert/tools"
)

var (
	hmOut       string
	hmTemp      string
	hmWidth     int
	hmHeight    int
	hmKeepTemp  bool
	hmOverwrite bool

	polyOut       string
	polyBand      int
	polyLayer     string
	polyOverwrite bool
)

var dem2HeightmapCmd = &cobra.Command{
	Use:   "dem2heightmap [dem]",
	Short: "Scale a DEM into a 16 bit ENVI heightmap",
	Long: `Converts the DEM to GeoTIFF with gdal_translate, reads the band min/max with
gdalinfo and rescales the elevations to 0-65535 in a UInt16 ENVI file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDem2Heightmap,
}

var raster2ShpCmd = &cobra.Command{
	Use:   "raster2shp [raster]",
	Short: "Polygonize a raster band into a shapefile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRaster2Shp,
}

func init() {
	dem2HeightmapCmd.Flags().StringVar(&hmOut, "out", "", "ENVI output (default from config)")
	dem2HeightmapCmd.Flags().StringVar(&hmTemp, "temp", "", "intermediate GeoTIFF (default from config)")
	dem2HeightmapCmd.Flags().IntVar(&hmWidth, "width", 0, "output width in pixels")
	dem2HeightmapCmd.Flags().IntVar(&hmHeight, "height", 0, "output height in pixels")
	dem2HeightmapCmd.Flags().BoolVar(&hmKeepTemp, "keep-temp", false, "keep the intermediate GeoTIFF")
	dem2HeightmapCmd.Flags().BoolVar(&hmOverwrite, "overwrite", false, "replace an existing output")

	raster2ShpCmd.Flags().StringVar(&polyOut, "out", "", "output shapefile (default from config)")
	raster2ShpCmd.Flags().IntVar(&polyBand, "band", 0, "band to polygonize (default from config)")
	raster2ShpCmd.Flags().StringVar(&polyLayer, "layer", "", "output layer name")
	raster2ShpCmd.Flags().BoolVar(&polyOverwrite, "overwrite", false, "replace an existing output")
}

func gdal() *tools.GDAL {
	return tools.NewGDAL(newRunner(), cfg.Tools, logger)
}

func runDem2Heightmap(cmd *cobra.Command, args []string) error {
	hm, err := gdal().Heightmap(commandContext(cmd), tools.HeightmapJob{
		Source:    argOr(args, 0, cfg.Paths.DEM),
		Temp:      strOr(hmTemp, cfg.Paths.TempTiff),
		Output:    strOr(hmOut, cfg.Paths.HeightmapOut),
		Width:     intOr(hmWidth, cfg.Raster.Width),
		Height:    intOr(hmHeight, cfg.Raster.Height),
		KeepTemp:  hmKeepTemp,
		Overwrite: hmOverwrite,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Band Type = %s\n", hm.BandType)
	fmt.Fprintf(out, "Min = %.3f, Max = %.3f\n", hm.Min, hm.Max)
	fmt.Fprintf(out, "elevation: %d to %d\n", hm.MinElevation, hm.MaxElevation)
	fmt.Fprintf(out, "heightmap: %s\n", hm.Output)
	return nil
}

func runRaster2Shp(cmd *cobra.Command, args []string) error {
	res, err := gdal().Polygonize(commandContext(cmd), tools.PolygonizeJob{
		Source:    argOr(args, 0, cfg.Paths.Raster),
		Dest:      strOr(polyOut, cfg.Paths.PolygonizeOut),
		Band:      intOr(polyBand, cfg.Raster.Band),
		Layer:     polyLayer,
		Overwrite: polyOverwrite,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d polygons, area %g\n", res.Path, res.Features, res.Area)
	return nil
}
