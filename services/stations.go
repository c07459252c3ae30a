package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cml-linkmap/models"
	"cml-linkmap/utils"
)

// ErrMalformedStation is returned for file names that encode neither a link
// nor a gauge.
var ErrMalformedStation = errors.New("malformed station file name")

// ParseStation decodes a station file name.
//
//	link:  <siteA>-<txlat>-<txlon>-<siteB>-<rxlat>-<rxlon>.csv
//	gauge: <a>-<b>-<id>-<lat>-<lon>.csv
func ParseStation(name string) (*models.Station, error) {
	base := strings.TrimSuffix(name, ".csv")
	parts := strings.Split(base, "-")

	var (
		s      models.Station
		coords []string
	)
	switch len(parts) {
	case 6:
		s.Kind = models.StationLink
		s.ID = parts[0] + "-" + parts[3]
		coords = []string{parts[1], parts[2], parts[4], parts[5]}
	case 5:
		s.Kind = models.StationGauge
		s.ID = parts[2]
		coords = []string{parts[3], parts[4], parts[3], parts[4]}
	default:
		return nil, fmt.Errorf("%q: %d parts: %w", name, len(parts), ErrMalformedStation)
	}

	vals := make([]float64, 4)
	for i, c := range coords {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: coordinate %q: %w", name, c, ErrMalformedStation)
		}
		vals[i] = v
	}
	s.TxLat, s.TxLon, s.RxLat, s.RxLon = vals[0], vals[1], vals[2], vals[3]
	return &s, nil
}

// StationScanner reads station directories.
type StationScanner struct {
	logger *utils.Logger
}

// NewStationScanner creates a StationScanner with the given logger.
func NewStationScanner(logger *utils.Logger) *StationScanner {
	return &StationScanner{logger: logger}
}

// Scan parses every file in dir, expecting stations of the given kind.
// Unparseable names are logged and skipped.
func (s *StationScanner) Scan(dir, kind string) ([]*models.Station, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("stations: list %q: %w", dir, err)
	}

	var out []*models.Station
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		st, err := ParseStation(e.Name())
		if err != nil {
			s.logger.Warn("[stations] Skipping %s: %v", e.Name(), err)
			continue
		}
		if st.Kind != kind {
			s.logger.Warn("[stations] Skipping %s: expected %s, got %s", e.Name(), kind, st.Kind)
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// StationInstructions turns stations into polylines drawn at full opacity.
func StationInstructions(stations []*models.Station, color string) []models.DrawInstruction {
	out := make([]models.DrawInstruction, 0, len(stations))
	for _, st := range stations {
		out = append(out, models.DrawInstruction{
			LinkID: st.ID,
			Points: [2]models.LatLon{
				{Lat: st.RxLat, Lon: st.RxLon},
				{Lat: st.TxLat, Lon: st.TxLon},
			},
			Color:   color,
			Weight:  3,
			Opacity: 1.0,
			Popup:   "ID:" + st.ID,
		})
	}
	return out
}

// StationRecords exposes stations as link records so the grid and extent
// helpers can be shared with the metadata pipeline.
func StationRecords(stations []*models.Station) []*models.LinkRecord {
	out := make([]*models.LinkRecord, 0, len(stations))
	for _, st := range stations {
		r := models.NewLinkRecord(st.ID)
		r.TxLatitude, r.TxLongitude = st.TxLat, st.TxLon
		r.RxLatitude, r.RxLongitude = st.RxLat, st.RxLon
		out = append(out, r)
	}
	return out
}
