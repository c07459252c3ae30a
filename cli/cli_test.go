package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cml-linkmap/config"
	"cml-linkmap/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}, args...))
	err := root.Execute()
	return buf.String(), err
}

func TestDrawCommand(t *testing.T) {
	data := t.TempDir()
	out := t.TempDir()
	writeFile(t, data, "cellcom.csv", "Link ID,Carrier,Tx Site Latitude,Tx Site Longitude,Rx Site Latitude,Rx Site Longitude\n"+
		"A,cellcom,32,35,32.1,35.1\nX,cellcom,31,34,31.1,34.1\nN,cellcom,,,,\n")
	writeFile(t, data, "partner.csv", "link_id,tx_lat,tx_lon,rx_lat,rx_lon\nP1,30,34,30.1,34.1\n")

	logs, err := run(t, "draw",
		"--data-dir", data, "--out-dir", out, "--name", "test_map",
		"--metadata", "partner.csv", "--metadata", "cellcom.csv",
		"--carrier", "partner",
		"--drop", "X", "--gridlines", "2",
		"--export-csv", "links.csv", "--geojson", "links.geojson",
	)
	require.NoError(t, err, logs)

	assert.Contains(t, logs, "Link ID X has been dropped")
	assert.Contains(t, logs, "No metadata for link N")
	assert.Contains(t, logs, "Map under the name")

	html, err := os.ReadFile(filepath.Join(out, "test_map.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `"id":"A"`)
	assert.Contains(t, string(html), `"id":"P1"`)
	assert.NotContains(t, string(html), `"id":"X"`)
	assert.Contains(t, string(html), `"grid":true`)

	csv, err := os.ReadFile(filepath.Join(out, "links.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csv), "A,not provided,cellcom,32,35,32.1,35.1")
	assert.Contains(t, string(csv), "P1,not provided,partner,30,34,30.1,34.1")

	_, err = os.Stat(filepath.Join(out, "links.geojson"))
	assert.NoError(t, err)
}

func TestDrawCommandBoundsAndNoGrid(t *testing.T) {
	data := t.TempDir()
	out := t.TempDir()
	writeFile(t, data, "meta.csv", "link_id,carrier,tx_lat,tx_lon,rx_lat,rx_lon\n"+
		"north,cellcom,33,35,33.1,35.1\nsouth,cellcom,30,35,30.1,35.1\n")

	logs, err := run(t, "draw",
		"--data-dir", data, "--out-dir", out, "--metadata", "meta.csv",
		"--max-lat", "32", "--no-gridlines", "--color", "green",
	)
	require.NoError(t, err, logs)

	cfg := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	html, err := os.ReadFile(filepath.Join(out, cfg.MapName))
	require.NoError(t, err)
	assert.Contains(t, string(html), `"id":"south"`)
	assert.NotContains(t, string(html), `"id":"north"`)
	assert.NotContains(t, string(html), `"grid":true`)
}

func TestDrawCommandErrors(t *testing.T) {
	_, err := run(t, "draw", "--out-dir", t.TempDir())
	assert.Error(t, err, "--metadata is required")

	_, err = run(t, "draw", "--out-dir", t.TempDir(), "--metadata", filepath.Join(t.TempDir(), "none.csv"))
	assert.Error(t, err)

	_, err = run(t, "draw", "--out-dir", t.TempDir(), "--metadata", "a.csv", "--color", "red", "--color", "blue")
	assert.Error(t, err)
}

func TestStationsCommand(t *testing.T) {
	links := t.TempDir()
	gauges := t.TempDir()
	out := t.TempDir()
	writeFile(t, links, "haifa-32.8-35.0-carmel-32.7-35.1.csv", "")
	writeFile(t, gauges, "ims-rain-12345-31.5-35.1.csv", "")

	logs, err := run(t, "stations",
		"--links-dir", links, "--gauges-dir", gauges, "--out-dir", out, "--gridlines", "2",
	)
	require.NoError(t, err, logs)
	assert.Contains(t, logs, "Number of stations on map: 2")

	html, err := os.ReadFile(filepath.Join(out, "stations_map.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `"id":"haifa-carmel"`)
	assert.Contains(t, string(html), `"id":"12345"`)
	assert.Contains(t, string(html), `"name":"gauges"`)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "a.csv"), resolve("data", "a.csv"))
	assert.Equal(t, "/abs/a.csv", resolve("data", "/abs/a.csv"))
	assert.Equal(t, "a.csv", resolve("", "a.csv"))
}

type stubWriter struct {
	writeErr error
	closeErr error
	closed   bool
}

func (w *stubWriter) Write(context.Context, []*models.LinkRecord) error { return w.writeErr }

func (w *stubWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestWriteLinksReportsCloseFailure(t *testing.T) {
	closeErr := errors.New("disk full")
	w := &stubWriter{closeErr: closeErr}
	err := writeLinks(context.Background(), w, nil)
	assert.ErrorIs(t, err, closeErr)
	assert.True(t, w.closed)

	writeErr := errors.New("bad row")
	w = &stubWriter{writeErr: writeErr, closeErr: closeErr}
	err = writeLinks(context.Background(), w, nil)
	assert.ErrorIs(t, err, writeErr, "the write error takes precedence")
	assert.True(t, w.closed)

	w = &stubWriter{}
	assert.NoError(t, writeLinks(context.Background(), w, nil))
	assert.True(t, w.closed)
}
