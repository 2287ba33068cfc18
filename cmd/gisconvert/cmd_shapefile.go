package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godeepar/gisconvert"
	"github.com/godeepar/gisconvert/shapefile"
	"github.com/godeepar/gisconvert/weights"
)

var (
	weightsRows      int
	weightsCols      int
	weightsQueen     bool
	weightsTransform string

	geojsonCRS       string
	geojsonOverwrite bool
)

var shpInfoCmd = &cobra.Command{
	Use:   "shpinfo [shapefile]",
	Short: "Print the records and DBF table of a shapefile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShpInfo,
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Build ROOK or QUEEN contiguity weights for a lattice",
	Long: `Builds the contiguity weights of a rows x cols lattice and prints its
unit count, sparseness, the neighbors of unit 0 and 5 and the cardinality
histogram.`,
	Args: cobra.NoArgs,
	RunE: runWeights,
}

var shp2GeoJSONCmd = &cobra.Command{
	Use:   "shp2geojson <shapefile> <output.geojson>",
	Short: "Convert a shapefile and its attributes to a GeoJSON feature collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runShp2GeoJSON,
}

func init() {
	addWeightsFlags(weightsCmd)

	shp2GeoJSONCmd.Flags().StringVar(&geojsonCRS, "crs", "", "named crs written to the collection, e.g. EPSG:3857")
	shp2GeoJSONCmd.Flags().BoolVar(&geojsonOverwrite, "overwrite", false, "replace an existing output file")
}

func addWeightsFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&weightsRows, "rows", 0, "lattice rows (default from config)")
	cmd.Flags().IntVar(&weightsCols, "cols", 0, "lattice columns (default from config)")
	cmd.Flags().BoolVar(&weightsQueen, "queen", false, "use the QUEEN criterion instead of ROOK (default from config)")
	cmd.Flags().StringVar(&weightsTransform, "transform", "", "weight transformation O, B, R or D (default from config)")
}

func runShpInfo(cmd *cobra.Command, args []string) error {
	path := argOr(args, 0, cfg.Paths.Shapefile)
	logger.Info("reading shapefile", zap.String("path", path))

	r, err := shapefile.Open(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	size := ""
	if st, err := os.Stat(r.Path); err == nil {
		size = humanize.Bytes(uint64(st.Size()))
	}
	fmt.Fprintf(out, "file: %s (%s)\n", r.Path, size)
	fmt.Fprintf(out, "geometry: %s\n", r.GeometryName())
	fmt.Fprintf(out, "records: %s\n", humanize.Comma(int64(r.Len())))
	if r.Len() > 0 {
		last, _ := r.Get(-1)
		fmt.Fprintf(out, "last id: %d\n", last.ID)
		ext := r.Extent()
		fmt.Fprintf(out, "extent: %g %g %g %g\n", ext.MinX, ext.MinY, ext.MaxX, ext.MaxY)
		cx, cy := ext.Center()
		fmt.Fprintf(out, "center: %g %g\n", cx, cy)
		lx, ly := gisconvert.To3857(ext.MinX, ext.MinY)
		rx, uy := gisconvert.To3857(ext.MaxX, ext.MaxY)
		fmt.Fprintf(out, "extent 3857: %.2f %.2f %.2f %.2f\n", lx, ly, rx, uy)
		fmt.Fprintf(out, "s2: %s\n", strings.Join(gisconvert.S2Covering(ext), " "))
	}

	printTable(out, r.Table())
	return nil
}

func printTable(out io.Writer, t *shapefile.Table) {
	fmt.Fprintf(out, "header: %v\n", t.Header())

	specs := make([]string, len(t.FieldSpec()))
	for i, f := range t.FieldSpec() {
		specs[i] = f.String()
	}
	fmt.Fprintf(out, "field_spec: [%s]\n", strings.Join(specs, ", "))

	if t.Len() == 0 {
		return
	}
	row, _ := t.Row(0)
	fmt.Fprintf(out, "[0]: %v\n", row)
	fmt.Fprintf(out, "[0:3]: %v\n", t.Rows(0, 3))
	fmt.Fprintf(out, "[0:5,1]: %v\n", t.Slice(0, 5, 1, 2))
	fmt.Fprintf(out, "[0:5,0:2]: %v\n", t.Slice(0, 5, 0, 2))
	if cell, err := t.Cell(-1, -1); err == nil {
		fmt.Fprintf(out, "[-1,-1]: %v\n", cell)
	}
}

func runWeights(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	rows, cols := cfg.Weights.Rows, cfg.Weights.Cols
	if flags.Changed("rows") {
		rows = weightsRows
	}
	if flags.Changed("cols") {
		cols = weightsCols
	}

	queen := cfg.Weights.Queen
	if flags.Changed("queen") {
		queen = weightsQueen
	}
	rule := weights.Rook
	if queen {
		rule = weights.Queen
	}

	w, err := weights.Lattice(rows, cols, rule)
	if err != nil {
		return err
	}

	scheme := cfg.Weights.Scheme
	if flags.Changed("transform") {
		scheme = weightsTransform
	}
	if scheme != "" {
		if w, err = w.Transform(weights.Scheme(strings.ToUpper(scheme))); err != nil {
			return err
		}
	}
	logger.Debug("lattice built", zap.Int("n", w.N), zap.Stringer("rule", w.Rule))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "criterion: %s\n", w.Rule)
	fmt.Fprintf(out, "n: %d\n", w.N)
	fmt.Fprintf(out, "pct_nonzero: %g\n", w.PctNonzero())
	fmt.Fprintf(out, "weights[0]: %v\n", w.Weights[0])
	fmt.Fprintf(out, "neighbors[0]: %v\n", w.Neighbors[0])
	if w.N > 5 {
		fmt.Fprintf(out, "neighbors[5]: %v\n", w.Neighbors[5])
	}

	bins := make([]string, 0, len(w.Histogram()))
	for _, b := range w.Histogram() {
		bins = append(bins, fmt.Sprintf("(%d, %d)", b.Cardinality, b.Count))
	}
	fmt.Fprintf(out, "histogram: [%s]\n", strings.Join(bins, ", "))
	return nil
}

func runShp2GeoJSON(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]
	if !geojsonOverwrite {
		if err := gisconvert.RequireAbsent(dst); err != nil {
			return err
		}
	}

	r, err := shapefile.Open(src)
	if err != nil {
		return err
	}
	fc, err := shapefile.ToGeoJSON(r, shapefile.GeoJSONOptions{CRSName: geojsonCRS})
	if err != nil {
		return err
	}
	raw, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return err
	}

	logger.Info("geojson written", zap.String("path", dst), zap.Int("features", len(fc.Features)))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d features to %s\n", len(fc.Features), dst)
	return nil
}
