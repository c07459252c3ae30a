package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cml-linkmap/models"
)

// ErrUnsupportedFormat is returned for metadata files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported metadata format")

// ReadMetadata loads a metadata table, choosing the parser by file extension.
// It is the only read whose failure aborts a draw.
func ReadMetadata(path string) (*models.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", "":
		return ReadCSV(path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, "")
	default:
		return nil, fmt.Errorf("metadata: %q: %w", path, ErrUnsupportedFormat)
	}
}

// ReadCSV reads a comma separated file whose first record is the header.
func ReadCSV(path string) (*models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := decodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("metadata: parse %q: %w", path, err)
	}
	t.Source = path
	return t, nil
}

func decodeCSV(r io.Reader) (*models.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("no header found")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &models.RawTable{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadXLSX reads a worksheet (the first one when sheet is empty) whose first
// row is the header.
func ReadXLSX(path, sheet string) (*models.RawTable, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: open %q: %w", path, err)
	}
	defer x.Close()

	if sheet == "" {
		sheets := x.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("metadata: %q has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := x.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("metadata: read sheet %q of %q: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("metadata: %q: no header found", path)
	}

	t := &models.RawTable{Source: path, Header: rows[0]}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
