package render

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cml-linkmap/models"
	"cml-linkmap/services"
	"cml-linkmap/utils"
)

func sampleLines() []models.DrawInstruction {
	return []models.DrawInstruction{
		{
			LinkID: "A", Carrier: "cellcom", Color: "purple", Weight: 3, Opacity: 0.7, Popup: "A | cellcom",
			Points: [2]models.LatLon{{Lat: 32.1, Lon: 35.1}, {Lat: 32, Lon: 35}},
			Chart: &models.RawDataSeries{LinkID: "A", Signal: "rsl", Samples: []models.Sample{
				{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: -45},
			}},
		},
		{
			LinkID: "B", Carrier: "partner", Color: "red", Weight: 3, Opacity: 0.7, Popup: "B | partner",
			Points: [2]models.LatLon{{Lat: 31.1, Lon: 34.1}, {Lat: 31, Lon: 34}},
		},
	}
}

func TestRenderEmbedsLayers(t *testing.T) {
	m := New(Options{CenterLat: 32, CenterLon: 35, Zoom: 8, TilesURL: "https://tiles/{z}/{x}/{y}.png"})
	m.AddLayer("cellcom", sampleLines())
	m.AddGrid("gridlines (2)", []models.DrawInstruction{{Color: "black", Popup: "32.5"}})

	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "<title>CML link map</title>")
	assert.Contains(t, out, `"name":"cellcom"`)
	assert.Contains(t, out, `"id":"A"`)
	assert.Contains(t, out, `"signal":"rsl"`)
	assert.Contains(t, out, `"grid":true`)
	assert.Contains(t, out, `"centerLat":32`)
	assert.Contains(t, out, "leaflet")
}

func TestRenderEmptyMap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Title: "empty"}).Render(&buf))
	assert.Contains(t, buf.String(), "<title>empty</title>")
	assert.Contains(t, buf.String(), "var layers = []")
}

func TestRenderEscapesPopups(t *testing.T) {
	m := New(Options{})
	m.AddLayer("x", []models.DrawInstruction{{LinkID: "</script><b>", Popup: "x"}})

	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf))
	assert.NotContains(t, buf.String(), "</script><b>")
}

func TestInstructionsSkipsGrid(t *testing.T) {
	m := New(Options{})
	m.AddLayer("a", sampleLines()[:1])
	m.AddGrid("grid", []models.DrawInstruction{{Popup: "1"}})
	m.AddLayer("b", sampleLines()[1:])

	got := m.Instructions()
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].LinkID)
	assert.Equal(t, "B", got[1].LinkID)
	assert.Len(t, m.Layers(), 3)
}

func TestSaveWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "map.html")

	m := New(Options{})
	m.AddLayer("a", sampleLines())
	require.NoError(t, m.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	// A second save replaces the first.
	m.AddLayer("b", nil)
	require.NoError(t, m.Save(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"b"`)
}

func TestGeoJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.geojson")
	require.NoError(t, WriteGeoJSON(path, sampleLines()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	ls, ok := first.Geometry.(orb.LineString)
	require.True(t, ok, "geometry should be a LineString")
	assert.Equal(t, orb.LineString{{35.1, 32.1}, {35, 32}}, ls)
	assert.Equal(t, "A", first.Properties.MustString("link_id"))
	assert.Equal(t, "purple", first.Properties.MustString("color"))
	assert.Equal(t, 1, first.Properties.MustInt("samples"))

	_, hasSamples := fc.Features[1].Properties["samples"]
	assert.False(t, hasSamples)
}

func TestSnapshotterDefaults(t *testing.T) {
	s := &Snapshotter{ChromeBin: "/opt/browser/chrome"}
	assert.Equal(t, 1600, s.width())
	assert.Equal(t, 1000, s.height())
	assert.Equal(t, 3*time.Second, s.settle())
	assert.Equal(t, "/opt/browser/chrome", s.chromeBinary())

	s = &Snapshotter{Width: 800, Height: 600, Settle: time.Second}
	assert.Equal(t, 800, s.width())
	assert.Equal(t, 600, s.height())
	assert.Equal(t, time.Second, s.settle())
	assert.NotEmpty(t, s.allocatorOptions())
}

func TestSnapshotMissingBrowser(t *testing.T) {
	dir := t.TempDir()
	html := filepath.Join(dir, "map.html")
	require.NoError(t, New(Options{}).Save(html))
	png := filepath.Join(dir, "map.png")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := &Snapshotter{ChromeBin: filepath.Join(dir, "no-such-browser")}
	require.Error(t, s.Capture(ctx, html, png))
	_, err := os.Stat(png)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderRejectsNonFiniteValues(t *testing.T) {
	lines := sampleLines()
	lines[0].Chart.Samples = append(lines[0].Chart.Samples, models.Sample{Value: math.NaN()})
	m := New(Options{})
	m.AddLayer("cellcom", lines)

	var buf bytes.Buffer
	require.Error(t, m.Render(&buf))

	path := filepath.Join(t.TempDir(), "map.html")
	require.Error(t, m.Save(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "a failed render must not leave a map behind")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestNonFiniteRawDataKeepsOtherLinks(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "meta.csv")
	require.NoError(t, os.WriteFile(meta, []byte(
		"link_id,carrier,tx_lat,tx_lon,rx_lat,rx_lon\n"+
			"L1,cellcom,32,35,32.1,35.1\n"+
			"L2,cellcom,31,34,31.1,34.1\n"), 0o644))
	raw := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(raw, "cellcom_L1.csv"), []byte(
		"time,rsl,interval\n"+
			"2013-01-01 00:00:00,-44,15\n"+
			"2013-01-01 00:15:00,NaN,15\n"), 0o644))

	m := New(Options{})
	b := services.NewMapBuilder(services.BuilderConfig{Interval: 15}, utils.NewLoggerTo(&bytes.Buffer{}, false))
	res, err := b.Draw(m, services.LayerOptions{MetadataPath: meta, RawDataDir: raw})
	require.NoError(t, err)
	require.Equal(t, 2, res.Report.Rendered)
	require.Equal(t, 1, res.Report.Charts)

	path := filepath.Join(t.TempDir(), "map.html")
	require.NoError(t, m.Save(path))
	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), `"id":"L1"`)
	assert.Contains(t, string(html), `"id":"L2"`)
	assert.NotContains(t, string(html), "var layers = null")
	assert.NotContains(t, string(html), "unsupported value")
}
