package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godeepar/gisconvert/reproject"
	"github.com/godeepar/gisconvert/srs"
	"github.com/godeepar/gisconvert/tools"
)

var (
	reprojFrom      int
	reprojTo        int
	reprojOverwrite bool

	wmsList bool

	prjEPSG    int
	prjBuiltin bool
)

var reprojectCmd = &cobra.Command{
	Use:   "reproject [source] [dest]",
	Short: "Reproject a shapefile and write its .prj",
	Long: `Reprojects every feature of the source shapefile, copying its attributes.
EPSG:4326 <-> EPSG:3857 is converted natively; other pairs are handed to
ogr2ogr.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runReproject,
}

var srsCmd = &cobra.Command{
	Use:   "srs",
	Short: "Show the coordinate reference system of a dataset",
}

var srsGeoJSONCmd = &cobra.Command{
	Use:   "geojson [file]",
	Short: "Show the crs member of a GeoJSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSRSGeoJSON,
}

var srsShapefileCmd = &cobra.Command{
	Use:   "shp [shapefile]",
	Short: "Show the .prj projection of a shapefile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSRSShapefile,
}

var srsWMSCmd = &cobra.Command{
	Use:   "wms [url] [layer]",
	Short: "Show the CRS options of a WMS layer",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runSRSWMS,
}

var prjCmd = &cobra.Command{
	Use:   "prj [shapefile]",
	Short: "Write the ESRI WKT of an EPSG code as the shapefile's .prj",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPrj,
}

func init() {
	reprojectCmd.Flags().IntVar(&reprojFrom, "from", 0, "source EPSG code (default from config)")
	reprojectCmd.Flags().IntVar(&reprojTo, "to", 0, "target EPSG code (default from config)")
	reprojectCmd.Flags().BoolVar(&reprojOverwrite, "overwrite", false, "replace an existing output")

	srsWMSCmd.Flags().BoolVar(&wmsList, "list", false, "list every named layer with its CRS options")
	srsCmd.AddCommand(srsGeoJSONCmd, srsShapefileCmd, srsWMSCmd)

	prjCmd.Flags().IntVar(&prjEPSG, "epsg", 0, "EPSG code (default from config)")
	prjCmd.Flags().BoolVar(&prjBuiltin, "builtin", false, "use the built-in WKT instead of fetching it")
}

func runReproject(cmd *cobra.Command, args []string) error {
	src := argOr(args, 0, cfg.Paths.ReprojectSource)
	dst := argOr(args, 1, cfg.Paths.ReprojectDest)
	opts := reproject.Options{
		From:      intOr(reprojFrom, cfg.Reproject.From),
		To:        intOr(reprojTo, cfg.Reproject.To),
		Overwrite: reprojOverwrite,
	}

	if !reproject.Supported(opts.From, opts.To) {
		logger.Info("falling back to ogr2ogr", zap.Int("from", opts.From), zap.Int("to", opts.To))
		err := ogr().Reproject(commandContext(cmd), tools.ReprojectJob{
			Source:    src,
			Dest:      dst,
			From:      opts.From,
			To:        opts.To,
			Overwrite: opts.Overwrite,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reprojected %s to %s with ogr2ogr\n", src, dst)
		return nil
	}

	res, err := reproject.Shapefile(src, dst, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reprojected %d records to %s (EPSG:%d)\n", res.Records, res.Path, opts.To)
	fmt.Fprintf(cmd.OutOrStdout(), "projection: %s\n", res.PrjPath)
	return nil
}

func runSRSGeoJSON(cmd *cobra.Command, args []string) error {
	f, err := os.Open(argOr(args, 0, cfg.Paths.GeoJSON))
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := srs.GeoJSONCRS(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if info.Found {
		fmt.Fprintf(out, "The CRS is : %s\n", info.Name)
		return nil
	}
	fmt.Fprintln(out, "no crs tag in the file")
	fmt.Fprintf(out, "assume %s\n", info.Name)
	if info.Type != "" {
		fmt.Fprintf(out, "Current GeoJSON data type is : %s\n", info.Type)
	}
	return nil
}

func runSRSShapefile(cmd *cobra.Command, args []string) error {
	info, err := srs.ShapefileSRS(argOr(args, 0, cfg.Paths.SRSShapefile))
	if err != nil {
		return err
	}
	if !info.Found {
		fmt.Fprintln(cmd.OutOrStdout(), "None")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", info.Kind, info.Name, info.WKT)
	return nil
}

func runSRSWMS(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	client := srs.NewWMSClient(nil, logger)
	url := argOr(args, 0, cfg.WMS.URL)

	if wmsList {
		layers, err := client.Layers(ctx, url)
		if err != nil {
			return err
		}
		for _, l := range layers {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", l.Name, strings.Join(l.CRS, " "))
		}
		return nil
	}

	crs, err := client.CRSOptions(ctx, url, argOr(args, 1, cfg.WMS.Layer))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%v\n", crs)
	return nil
}

func runPrj(cmd *cobra.Command, args []string) error {
	shp := argOr(args, 0, cfg.Paths.PrjShapefile)
	code := intOr(prjEPSG, cfg.EPSG.Code)

	var wkt string
	var err error
	if prjBuiltin {
		wkt, err = reproject.ESRIWKT(code)
	} else {
		var client *srs.EPSGClient
		client, err = srs.NewEPSGClient(cfg.EPSG.URLTemplate, cfg.EPSG.Proxy, logger)
		if err == nil {
			wkt, err = client.FetchWKT(commandContext(cmd), code)
		}
	}
	if err != nil {
		return err
	}

	path, err := reproject.WritePrj(shp, wkt)
	if err != nil {
		return err
	}
	logger.Info("projection written", zap.String("path", path), zap.Int("epsg", code))
	fmt.Fprintln(cmd.OutOrStdout(), "Done writing projection definition.")
	return nil
}
