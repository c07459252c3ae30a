package services

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"cml-linkmap/models"
	"cml-linkmap/storage"
	"cml-linkmap/utils"
)

// DefaultVendorFormats is the built-in carrier to raw-data file convention
// table. It can be replaced with storage.LoadVendorFormats.
func DefaultVendorFormats() []models.VendorFormat {
	return []models.VendorFormat{
		{Carrier: "cellcom", FilenamePattern: "cellcom", SignalColumn: "rsl", TimeColumn: "time", IntervalColumn: "interval"},
		{Carrier: "pelephone", FilenamePattern: "PELEPHONE_", SignalColumn: "RSL_MIN", TimeColumn: "Time", IntervalColumn: "Interval", CaseSensitive: true},
		{Carrier: "partner", FilenamePattern: "partner", SignalColumn: "rx_level", TimeColumn: "timestamp"},
		{Carrier: "smbit", FilenamePattern: "SMBIT", SignalColumn: "RFInputPower", TimeColumn: "Time", IntervalColumn: "Interval", CaseSensitive: true},
	}
}

// SeriesReader parses one raw-data file.
type SeriesReader func(path string, f models.VendorFormat, interval int) ([]models.Sample, error)

// RawDataMatcher finds and concatenates the raw-data files of a link. Match
// is safe for concurrent use.
type RawDataMatcher struct {
	dir      string
	formats  map[string]models.VendorFormat
	interval int
	read     SeriesReader
	logger   *utils.Logger

	listOnce sync.Once
	names    []string
}

// NewRawDataMatcher creates a matcher over dir. interval selects the sampling
// interval to keep; zero keeps every row.
func NewRawDataMatcher(dir string, formats []models.VendorFormat, interval int, logger *utils.Logger) *RawDataMatcher {
	byCarrier := make(map[string]models.VendorFormat, len(formats))
	for _, f := range formats {
		byCarrier[strings.ToLower(f.Carrier)] = f
	}
	return &RawDataMatcher{
		dir:      dir,
		formats:  byCarrier,
		interval: interval,
		read:     storage.ReadSeries,
		logger:   logger,
	}
}

// Match returns the time-ordered series of link. Absent formats, directories
// or files and malformed files all yield an empty series.
func (m *RawDataMatcher) Match(link *models.LinkRecord) *models.RawDataSeries {
	series := &models.RawDataSeries{LinkID: link.LinkID, Carrier: link.Carrier}

	f, ok := m.formats[strings.ToLower(link.Carrier)]
	if !ok || link.LinkID == "" {
		return series
	}
	series.Signal = f.SignalColumn

	for _, name := range m.files() {
		if !matches(name, f, link.LinkID) {
			continue
		}
		samples, err := m.read(filepath.Join(m.dir, name), f, m.interval)
		if err != nil {
			m.logger.Debug("[rawdata] Skipping %s for link %s: %v", name, link.LinkID, err)
			continue
		}
		series.Samples = append(series.Samples, samples...)
	}

	sort.SliceStable(series.Samples, func(i, j int) bool {
		return series.Samples[i].Time.Before(series.Samples[j].Time)
	})
	return series
}

// files lists the directory once per matcher.
func (m *RawDataMatcher) files() []string {
	m.listOnce.Do(func() {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			m.logger.Warn("[rawdata] Cannot list %s: %v", m.dir, err)
			return
		}
		for _, e := range entries {
			if !e.IsDir() {
				m.names = append(m.names, e.Name())
			}
		}
	})
	return m.names
}

func matches(name string, f models.VendorFormat, linkID string) bool {
	pattern := f.FilenamePattern
	if !f.CaseSensitive {
		name, pattern, linkID = strings.ToLower(name), strings.ToLower(pattern), strings.ToLower(linkID)
	}
	if !strings.Contains(name, pattern) {
		return false
	}
	return containsID(strings.TrimSuffix(name, filepath.Ext(name)), linkID)
}

// containsID reports whether id occurs in stem as a whole token, so that L1
// does not claim the files of L10.
func containsID(stem, id string) bool {
	if id == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(stem[start:], id)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(id)
		if boundary(stem, i-1) && boundary(stem, end) {
			return true
		}
		start = i + 1
	}
}

// boundary reports whether position i of s is outside s or holds a separator.
func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
