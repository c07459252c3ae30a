package services

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"cml-linkmap/models"
	"cml-linkmap/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, true) }

func newCapturingLogger() (*utils.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return utils.NewLoggerTo(&buf, true), &buf
}

func link(id string, txLat, txLon, rxLat, rxLon float64) *models.LinkRecord {
	l := models.NewLinkRecord(id)
	l.TxLatitude, l.TxLongitude, l.RxLatitude, l.RxLongitude = txLat, txLon, rxLat, rxLon
	return l
}

func ids(records []*models.LinkRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.LinkID
	}
	return out
}

func ptr(v float64) *float64 { return &v }

var nan = math.NaN()

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// fakeCanvas records what a MapBuilder draws.
type fakeCanvas struct {
	layers map[string][]models.DrawInstruction
	grids  [][]models.DrawInstruction
}

func newFakeCanvas() *fakeCanvas {
	return &fakeCanvas{layers: make(map[string][]models.DrawInstruction)}
}

func (c *fakeCanvas) AddLayer(name string, lines []models.DrawInstruction) {
	c.layers[name] = append(c.layers[name], lines...)
}

func (c *fakeCanvas) AddGrid(_ string, lines []models.DrawInstruction) {
	c.grids = append(c.grids, lines)
}

func modelsBounds(maxLat float64) models.Bounds {
	return models.Bounds{MaxLat: ptr(maxLat)}
}
