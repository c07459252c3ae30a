package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"cml-linkmap/models"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006/01/02 15:04:05",
}

// ReadSeries parses one raw-data file laid out as described by f. When f has an
// interval column and interval is positive, only rows sampled at that interval
// are kept. Rows with an unparseable time or a non-finite value are skipped; a file with no
// usable row is reported as malformed.
func ReadSeries(path string, f models.VendorFormat, interval int) ([]models.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("series: open %q: %w", path, err)
	}
	defer file.Close()

	samples, err := decodeSeries(file, f, interval)
	if err != nil {
		return nil, fmt.Errorf("series: %q: %w", path, err)
	}
	return samples, nil
}

func decodeSeries(r io.Reader, f models.VendorFormat, interval int) ([]models.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	timeCol, ok := idx[strings.ToLower(f.TimeColumn)]
	if !ok {
		return nil, fmt.Errorf("missing time column %q", f.TimeColumn)
	}
	signalCol, ok := idx[strings.ToLower(f.SignalColumn)]
	if !ok {
		return nil, fmt.Errorf("missing signal column %q", f.SignalColumn)
	}
	intervalCol := -1
	if f.IntervalColumn != "" && interval > 0 {
		if i, ok := idx[strings.ToLower(f.IntervalColumn)]; ok {
			intervalCol = i
		}
	}

	var out []models.Sample
	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows++
		if timeCol >= len(rec) || signalCol >= len(rec) {
			continue
		}
		if intervalCol >= 0 {
			if intervalCol >= len(rec) {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(rec[intervalCol]))
			if err != nil || n != interval {
				continue
			}
		}
		ts, ok := parseTime(rec[timeCol])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[signalCol]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, models.Sample{Time: ts, Value: v})
	}
	if rows > 0 && len(out) == 0 && intervalCol < 0 {
		return nil, fmt.Errorf("no parseable rows out of %d", rows)
	}
	return out, nil
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}
