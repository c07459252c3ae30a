package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cml-linkmap/config"
	"cml-linkmap/models"
	"cml-linkmap/render"
	"cml-linkmap/services"
	"cml-linkmap/storage"
	"cml-linkmap/utils"
)

type DrawCmd struct{}

func NewDrawCmd() *DrawCmd {
	return &DrawCmd{}
}

// drawFlags is the parsed flag set of the draw command.
type drawFlags struct {
	metadata  []string
	colors    []string
	carriers  []string
	drop      []string
	highlight []string
	bounds    models.Bounds
	jitter    bool
	seed      int64
	seedSet   bool
	exportCSV string
	geoJSON   string
	snapshot  string
}

func (c *DrawCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw links from one or more metadata files onto a single map",
		Example: `  cml-linkmap draw --data-dir ./meta --metadata cellcom.csv --metadata partner.csv \
    --rawdata-dir rawdata --drop 4673-7HZ4 --highlight TS01-7330 --name my_map`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := applyDrawOverrides(cmd, cfg); err != nil {
				return err
			}
			f, err := parseDrawFlags(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runDraw(ctx, cmd, cfg, f, log)
		},
	}

	fl := cmd.Flags()
	fl.StringSlice("metadata", nil, "Metadata file (CSV or XLSX), relative to --data-dir; repeat for several layers")
	fl.String("data-dir", "", "Directory holding metadata files (default CML_DATA_DIR)")
	fl.String("out-dir", "", "Directory for output files (default CML_OUT_DIR)")
	fl.String("name", "", "Output map file name (default CML_MAP_NAME)")
	fl.String("rawdata-dir", "", "Raw-data directory, relative to --data-dir, used for popup charts")
	fl.String("formats", "", "CSV table of carrier raw-data file conventions")
	fl.Int("interval", 0, "Sampling interval kept from raw-data files (default CML_INTERVAL)")
	fl.StringSlice("color", nil, "Color of the links of each metadata file, in order; per-carrier colors when omitted")
	fl.StringSlice("carrier", nil, "Carrier of each metadata file lacking a carrier column, in order")
	fl.StringSlice("drop", nil, "Link ids to leave off the map")
	fl.StringSlice("highlight", nil, "Link ids to draw in the highlight color")
	fl.String("highlight-color", "", "Color of highlighted links (default CML_HIGHLIGHT_COLOR)")
	fl.Float64("min-lat", 0, "Drop links south of this latitude")
	fl.Float64("max-lat", 0, "Drop links north of this latitude")
	fl.Float64("min-lon", 0, "Drop links west of this longitude")
	fl.Float64("max-lon", 0, "Drop links east of this longitude")
	fl.Bool("jitter", false, "Nudge coordinates slightly so overlapping links can be told apart")
	fl.Int64("seed", 0, "Seed for --jitter; runs are not reproducible without it")
	fl.Int("gridlines", 0, "Number of gridlines per axis (default CML_GRIDLINES)")
	fl.Bool("no-gridlines", false, "Do not draw gridlines")
	fl.String("export-csv", "", "Also write the rendered links in canonical form to this CSV file")
	fl.String("geojson", "", "Also write the rendered links to this GeoJSON file")
	fl.String("snapshot", "", "Also save a PNG screenshot of the map using a headless browser")
	fl.Bool("store", false, "Also upsert the rendered links into PostgreSQL")
	_ = cmd.MarkFlagRequired("metadata")

	return cmd
}

// applyDrawOverrides copies explicitly set flags over the loaded config.
func applyDrawOverrides(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	for flag, dst := range map[string]*string{
		"data-dir":        &cfg.DataDir,
		"out-dir":         &cfg.OutDir,
		"name":            &cfg.MapName,
		"rawdata-dir":     &cfg.RawDataDir,
		"formats":         &cfg.FormatsFile,
		"highlight-color": &cfg.HighlightColor,
	} {
		if !fl.Changed(flag) {
			continue
		}
		v, err := fl.GetString(flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		*dst = v
	}
	for flag, dst := range map[string]*int{
		"interval":  &cfg.SamplingInterval,
		"gridlines": &cfg.NumGridlines,
	} {
		if !fl.Changed(flag) {
			continue
		}
		v, err := fl.GetInt(flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		*dst = v
	}
	if fl.Changed("no-gridlines") {
		off, err := fl.GetBool("no-gridlines")
		if err != nil {
			return fmt.Errorf("failed to get no-gridlines flag: %w", err)
		}
		cfg.GridlinesOn = !off
	}
	if fl.Changed("store") {
		store, err := fl.GetBool("store")
		if err != nil {
			return fmt.Errorf("failed to get store flag: %w", err)
		}
		cfg.PostgresEnabled = store
	}
	if !strings.HasSuffix(strings.ToLower(cfg.MapName), ".html") {
		cfg.MapName += ".html"
	}
	return nil
}

func parseDrawFlags(cmd *cobra.Command) (*drawFlags, error) {
	fl := cmd.Flags()
	f := &drawFlags{}
	var err error

	slices := map[string]*[]string{
		"metadata":  &f.metadata,
		"color":     &f.colors,
		"carrier":   &f.carriers,
		"drop":      &f.drop,
		"highlight": &f.highlight,
	}
	for flag, dst := range slices {
		if *dst, err = fl.GetStringSlice(flag); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
	}
	if len(f.metadata) == 0 {
		return nil, fmt.Errorf("at least one --metadata file is required")
	}
	if len(f.colors) > len(f.metadata) || len(f.carriers) > len(f.metadata) {
		return nil, fmt.Errorf("--color and --carrier take at most one value per --metadata file")
	}

	bounds := map[string]**float64{
		"min-lat": &f.bounds.MinLat,
		"max-lat": &f.bounds.MaxLat,
		"min-lon": &f.bounds.MinLon,
		"max-lon": &f.bounds.MaxLon,
	}
	for flag, dst := range bounds {
		if !fl.Changed(flag) {
			continue
		}
		v, err := fl.GetFloat64(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		*dst = &v
	}

	if f.jitter, err = fl.GetBool("jitter"); err != nil {
		return nil, fmt.Errorf("failed to get jitter flag: %w", err)
	}
	if f.seed, err = fl.GetInt64("seed"); err != nil {
		return nil, fmt.Errorf("failed to get seed flag: %w", err)
	}
	f.seedSet = fl.Changed("seed")

	for flag, dst := range map[string]*string{
		"export-csv": &f.exportCSV,
		"geojson":    &f.geoJSON,
		"snapshot":   &f.snapshot,
	} {
		if *dst, err = fl.GetString(flag); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
	}
	return f, nil
}

func runDraw(ctx context.Context, cmd *cobra.Command, cfg *config.Config, f *drawFlags, log *utils.Logger) error {
	log.Info("=== cml-linkmap draw: %d metadata file(s) ===", len(f.metadata))

	formats := services.DefaultVendorFormats()
	if cfg.FormatsFile != "" {
		loaded, err := storage.LoadVendorFormats(cfg.FormatsFile)
		if err != nil {
			return err
		}
		formats = loaded
	}

	seed := time.Now().UnixNano()
	if f.seedSet {
		seed = f.seed
	}

	palette := services.NewPalette()
	builder := services.NewMapBuilder(services.BuilderConfig{
		Formats:      formats,
		Interval:     cfg.SamplingInterval,
		JitterSource: rand.NewSource(seed),
		Palette:      palette,
		Workers:      cfg.Workers,
	}, log)

	m := render.New(render.Options{
		Title:            strings.TrimSuffix(cfg.MapName, filepath.Ext(cfg.MapName)),
		CenterLat:        cfg.CenterLat,
		CenterLon:        cfg.CenterLon,
		Zoom:             cfg.Zoom,
		TilesURL:         cfg.TilesURL,
		TilesAttribution: cfg.TilesAttribution,
	})

	var (
		reports []*models.RunReport
		links   []*models.LinkRecord
	)
	rawDir := ""
	if cfg.RawDataDir != "" {
		rawDir = resolve(cfg.DataDir, cfg.RawDataDir)
	}
	for i, md := range f.metadata {
		opts := services.LayerOptions{
			MetadataPath:   resolve(cfg.DataDir, md),
			Highlight:      f.highlight,
			HighlightColor: cfg.HighlightColor,
			Drop:           f.drop,
			Bounds:         f.bounds,
			Jitter:         f.jitter,
			RawDataDir:     rawDir,
		}
		if i < len(f.colors) {
			opts.Color = f.colors[i]
		}
		if i < len(f.carriers) {
			opts.Carrier = f.carriers[i]
		}

		res, err := builder.Draw(m, opts)
		if err != nil {
			return fmt.Errorf("draw %s: %w", md, err)
		}
		reports = append(reports, res.Report)
		links = append(links, res.Links...)
	}

	if cfg.GridlinesOn {
		n := builder.Grid(m, cfg.NumGridlines)
		log.Debug("[map] %d gridlines drawn", n)
	}

	out := filepath.Join(cfg.OutDir, cfg.MapName)
	if err := m.Save(out); err != nil {
		return err
	}
	log.Info("Map under the name %s was generated", out)

	printer := services.NewReportPrinter(cmd.OutOrStdout())
	printer.Print(reports)
	if len(f.colors) == 0 {
		printer.PrintLegend(palette.Legend())
	}

	return writeExtras(ctx, cfg, f, log, m, links, out)
}

// writeExtras produces the optional side outputs. Failures are reported but
// do not undo the saved map.
func writeExtras(ctx context.Context, cfg *config.Config, f *drawFlags, log *utils.Logger,
	m *render.Map, links []*models.LinkRecord, mapPath string) error {
	var failed []string

	if f.exportCSV != "" {
		if err := exportCSV(ctx, resolve(cfg.OutDir, f.exportCSV), links); err != nil {
			log.Error("CSV export failed: %v", err)
			failed = append(failed, "export-csv")
		} else {
			log.Info("Rendered links exported to %s", f.exportCSV)
		}
	}

	if f.geoJSON != "" {
		if err := render.WriteGeoJSON(resolve(cfg.OutDir, f.geoJSON), m.Instructions()); err != nil {
			log.Error("GeoJSON export failed: %v", err)
			failed = append(failed, "geojson")
		} else {
			log.Info("GeoJSON written to %s", f.geoJSON)
		}
	}

	if cfg.PostgresEnabled {
		if err := storeLinks(ctx, cfg, log, links); err != nil {
			log.Error("PostgreSQL write failed: %v", err)
			failed = append(failed, "store")
		} else {
			log.Info("%d links stored in PostgreSQL (table: cml_links)", len(links))
		}
	}

	if f.snapshot != "" {
		snap := &render.Snapshotter{
			ChromeBin: cfg.ChromeBin,
			Retry:     &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: log},
			Logger:    log,
		}
		if err := snap.Capture(ctx, mapPath, resolve(cfg.OutDir, f.snapshot)); err != nil {
			log.Error("Snapshot failed: %v", err)
			failed = append(failed, "snapshot")
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("map saved, but some outputs failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func exportCSV(ctx context.Context, path string, links []*models.LinkRecord) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	return writeLinks(ctx, w, links)
}

func storeLinks(ctx context.Context, cfg *config.Config, log *utils.Logger, links []*models.LinkRecord) error {
	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: log}
	pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), retry)
	if err != nil {
		return err
	}
	return writeLinks(ctx, pg, links)
}

// writeLinks writes links and closes w. A close failure is reported when
// the write itself succeeded.
func writeLinks(ctx context.Context, w storage.LinkWriter, links []*models.LinkRecord) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close writer: %w", cerr)
		}
	}()
	return w.Write(ctx, links)
}

// resolve joins p onto dir unless p is already absolute.
func resolve(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
