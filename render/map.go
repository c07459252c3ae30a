package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"cml-linkmap/models"
)

//go:embed templates/map.html.tmpl
var templates embed.FS

var mapTemplate = template.Must(template.ParseFS(templates, "templates/map.html.tmpl"))

// Options controls the base map.
type Options struct {
	Title            string  `json:"-"`
	CenterLat        float64 `json:"centerLat"`
	CenterLon        float64 `json:"centerLon"`
	Zoom             int     `json:"zoom"`
	TilesURL         string  `json:"tilesUrl"`
	TilesAttribution string  `json:"tilesAttribution"`
}

// Layer is a named, toggleable group of polylines.
type Layer struct {
	Name  string                   `json:"name"`
	Lines []models.DrawInstruction `json:"lines"`
	Grid  bool                     `json:"grid"`
}

// Map accumulates layers across draw calls until it is saved, so several
// metadata files can share one artifact.
type Map struct {
	opts   Options
	layers []Layer
}

// New creates an empty Map.
func New(opts Options) *Map {
	if opts.Title == "" {
		opts.Title = "CML link map"
	}
	return &Map{opts: opts}
}

// AddLayer appends a layer of link polylines.
func (m *Map) AddLayer(name string, lines []models.DrawInstruction) {
	m.layers = append(m.layers, Layer{Name: name, Lines: lines})
}

// AddGrid appends a gridline layer.
func (m *Map) AddGrid(name string, lines []models.DrawInstruction) {
	m.layers = append(m.layers, Layer{Name: name, Lines: lines, Grid: true})
}

// Layers returns the layers added so far.
func (m *Map) Layers() []Layer {
	return m.layers
}

// Instructions returns every non-grid polyline across layers.
func (m *Map) Instructions() []models.DrawInstruction {
	var out []models.DrawInstruction
	for _, l := range m.layers {
		if !l.Grid {
			out = append(out, l.Lines...)
		}
	}
	return out
}

// Render writes the HTML document to w. Layer data is marshalled up front so
// a value JSON cannot represent, such as NaN, fails the render instead of
// blanking the map in the browser.
func (m *Map) Render(w io.Writer) error {
	layers := m.layers
	if layers == nil {
		layers = []Layer{}
	}
	layersJSON, err := json.Marshal(layers)
	if err != nil {
		return fmt.Errorf("render: encode layers: %w", err)
	}
	optsJSON, err := json.Marshal(m.opts)
	if err != nil {
		return fmt.Errorf("render: encode options: %w", err)
	}
	// json.Marshal escapes <, > and &, so the output is safe inside <script>.
	return mapTemplate.Execute(w, struct {
		Title   string
		Options template.JS
		Layers  template.JS
	}{m.opts.Title, template.JS(optsJSON), template.JS(layersJSON)})
}

// Save renders the map to path. The file is written next to its final name
// and renamed into place so a browser never sees a partial document.
func (m *Map) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("render: create output dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("render: create %q: %w", tmp, err)
	}
	if err := m.Render(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("render: write %q: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("render: close %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("render: rename %q: %w", tmp, err)
	}
	return nil
}
