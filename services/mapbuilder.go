package services

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alitto/pond/v2"

	"cml-linkmap/models"
	"cml-linkmap/storage"
	"cml-linkmap/utils"
)

const (
	linkOpacity    = 0.7
	defaultWorkers = 4
)

// Canvas receives draw instructions. render.Map is the production canvas.
type Canvas interface {
	AddLayer(name string, lines []models.DrawInstruction)
	AddGrid(name string, lines []models.DrawInstruction)
}

// LayerOptions describes one draw call over one metadata file.
type LayerOptions struct {
	MetadataPath string
	// Name labels the layer; the file name is used when empty.
	Name string
	// Carrier fills in sources that have no carrier column.
	Carrier string
	// Color paints the whole layer; when empty each carrier gets a palette color.
	Color          string
	Highlight      []string
	HighlightColor string
	Drop           []string
	Bounds         models.Bounds
	Jitter         bool
	RawDataDir     string
}

// DrawResult is what one draw call produced.
type DrawResult struct {
	Report *models.RunReport
	Links  []*models.LinkRecord
	Lines  []models.DrawInstruction
}

// BuilderConfig wires the pipeline stages of a MapBuilder.
type BuilderConfig struct {
	Synonyms    map[string]string
	MultiValued []string
	Formats     []models.VendorFormat
	Interval    int
	// JitterSource feeds coordinate jitter; a time-seeded source is used when nil.
	JitterSource rand.Source
	Palette      *Palette
	// Workers bounds how many raw-data lookups run at once.
	Workers int
}

// MapBuilder runs the normalize, filter, jitter and match pipeline for each
// metadata file and hands the result to a Canvas.
type MapBuilder struct {
	cfg      BuilderConfig
	logger   *utils.Logger
	filter   *LinkFilter
	jitterer *Jitterer
	palette  *Palette
	rendered []*models.LinkRecord
}

// NewMapBuilder creates a MapBuilder.
func NewMapBuilder(cfg BuilderConfig, logger *utils.Logger) *MapBuilder {
	if cfg.Formats == nil {
		cfg.Formats = DefaultVendorFormats()
	}
	src := cfg.JitterSource
	if src == nil {
		src = rand.NewSource(rand.Int63())
	}
	palette := cfg.Palette
	if palette == nil {
		palette = NewPalette()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &MapBuilder{
		cfg:      cfg,
		logger:   logger,
		filter:   NewLinkFilter(logger),
		jitterer: NewJitterer(src, DefaultJitter),
		palette:  palette,
	}
}

// Draw adds the links of one metadata file to canvas. Only a failure to load
// the metadata file is returned as an error; every later problem is logged
// and reflected in the report.
func (b *MapBuilder) Draw(canvas Canvas, opts LayerOptions) (*DrawResult, error) {
	table, err := storage.ReadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(opts.MetadataPath), filepath.Ext(opts.MetadataPath))
	}
	report := &models.RunReport{Source: name, Loaded: len(table.Rows)}

	normalizer := NewNormalizer(NormalizerConfig{
		Synonyms:    b.cfg.Synonyms,
		MultiValued: b.cfg.MultiValued,
		Carrier:     opts.Carrier,
	}, b.logger)
	norm := normalizer.Normalize(table)
	report.Exploded = norm.Exploded

	links, dups, unidentified := b.filter.Deduplicate(norm.Records)
	report.Duplicates = dups
	report.Unidentified = unidentified + report.Loaded + norm.Exploded - len(norm.Records)

	bounded := b.filter.ApplyBounds(links, opts.Bounds, norm.Present)
	report.OutOfBounds = bounded.Removed
	report.BoundsSkipped = bounded.Skipped
	links = bounded.Records

	if opts.Jitter {
		links = b.jitterer.Apply(links)
	}

	part := b.filter.Partition(links, utils.NewIDSet(opts.Drop...))
	report.DroppedByList = part.Dropped
	report.MissingCoordinates = part.Missing
	report.Rendered = len(part.Render)
	report.Carriers = carriers(part.Render)

	charts := b.charts(part.Render, opts.RawDataDir)

	highlight := utils.NewIDSet(opts.Highlight...)
	lines := make([]models.DrawInstruction, 0, len(part.Render))
	for i, l := range part.Render {
		color := opts.Color
		if color == "" {
			color = b.palette.Color(l.Carrier)
		}
		if highlight.Contains(l.LinkID) && opts.HighlightColor != "" {
			color = opts.HighlightColor
		}

		instr := models.DrawInstruction{
			LinkID:  l.LinkID,
			Carrier: l.Carrier,
			Points: [2]models.LatLon{
				{Lat: l.RxLatitude, Lon: l.RxLongitude},
				{Lat: l.TxLatitude, Lon: l.TxLongitude},
			},
			Color:   color,
			Weight:  3,
			Opacity: linkOpacity,
			Popup:   popup(l),
		}
		if i < len(charts) && !charts[i].Empty() {
			instr.Chart = charts[i]
			report.Charts++
		}
		lines = append(lines, instr)
	}

	canvas.AddLayer(name, lines)
	b.rendered = append(b.rendered, part.Render...)

	b.logger.Info("[map] %s: carriers found: %s", name, strings.Join(report.Carriers, ", "))
	b.logger.Info("[map] %s: %d of %d links rendered (%d dropped, %d without coordinates, %d out of bounds)",
		name, report.Rendered, report.Deduplicated(), len(report.DroppedByList),
		len(report.MissingCoordinates), report.OutOfBounds)

	return &DrawResult{Report: report, Links: part.Render, Lines: lines}, nil
}

// charts looks up the raw data of every link concurrently. The result is
// index-aligned with links and empty when dir is unset.
func (b *MapBuilder) charts(links []*models.LinkRecord, dir string) []*models.RawDataSeries {
	if dir == "" || len(links) == 0 {
		return nil
	}
	matcher := NewRawDataMatcher(dir, b.cfg.Formats, b.cfg.Interval, b.logger)

	pool := pond.NewResultPool[*models.RawDataSeries](b.cfg.Workers)
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, l := range links {
		group.Submit(func() *models.RawDataSeries {
			return matcher.Match(l)
		})
	}
	series, err := group.Wait()
	if err != nil {
		b.logger.Warn("[map] Raw-data lookup failed: %v", err)
		return nil
	}
	return series
}

// Grid adds n gridlines per axis over every link rendered so far and returns
// the number of lines drawn.
func (b *MapBuilder) Grid(canvas Canvas, n int) int {
	grid := Gridlines(b.rendered, n)
	if len(grid) == 0 {
		return 0
	}
	canvas.AddGrid(fmt.Sprintf("gridlines (%d)", n), grid)
	return len(grid)
}

func popup(l *models.LinkRecord) string {
	s := l.LinkID
	if l.HopID != models.HopNotProvided {
		s += " | hop " + l.HopID
	}
	return s + " | " + l.Carrier
}

func carriers(links []*models.LinkRecord) []string {
	set := utils.NewIDSet()
	for _, l := range links {
		set.Add(l.Carrier)
	}
	out := set.Values()
	sort.Strings(out)
	return out
}
