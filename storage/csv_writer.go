package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"

	"cml-linkmap/models"
)

// CSVWriter exports canonical link records, one row per link, with the
// canonical column names as header.
type CSVWriter struct {
	file    *os.File
	writer  *csv.Writer
	encoder *csvutil.Encoder
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(models.LinkRecord{}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	return &CSVWriter{file: f, writer: w, encoder: enc}, nil
}

// Write appends links to the file.
func (c *CSVWriter) Write(_ context.Context, links []*models.LinkRecord) error {
	for _, l := range links {
		if err := c.encoder.Encode(l); err != nil {
			return fmt.Errorf("csv: write row %q: %w", l.LinkID, err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return c.file.Close()
}
