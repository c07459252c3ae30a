package services

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"

	"cml-linkmap/models"
)

const (
	gridColor   = "black"
	gridWeight  = 0.5
	gridOpacity = 0.5
)

// Extent returns the bounding box of every finite endpoint in records and
// false when there is none.
func Extent(records []*models.LinkRecord) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, r := range records {
		for _, p := range [][2]float64{{r.TxLongitude, r.TxLatitude}, {r.RxLongitude, r.RxLatitude}} {
			if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
				continue
			}
			pt := orb.Point{p[0], p[1]}
			if !found {
				b, found = pt.Bound(), true
				continue
			}
			b = b.Extend(pt)
		}
	}
	return b, found
}

// Gridlines lays n evenly spaced latitude lines and n longitude lines across
// the extent of records. Latitude lines span the whole globe in longitude and
// vice versa; each popup shows the line's coordinate rounded to 5 decimals.
func Gridlines(records []*models.LinkRecord, n int) []models.DrawInstruction {
	if n <= 0 {
		return nil
	}
	b, ok := Extent(records)
	if !ok {
		return nil
	}

	lats := linspace(b.Min.Lat(), b.Max.Lat(), n)
	lons := linspace(b.Min.Lon(), b.Max.Lon(), n)

	grid := make([]models.DrawInstruction, 0, 2*n)
	for _, lat := range lats {
		grid = append(grid, gridline(models.LatLon{Lat: lat, Lon: -180}, models.LatLon{Lat: lat, Lon: 180}, lat))
	}
	for _, lon := range lons {
		grid = append(grid, gridline(models.LatLon{Lat: -90, Lon: lon}, models.LatLon{Lat: 90, Lon: lon}, lon))
	}
	return grid
}

func gridline(a, b models.LatLon, label float64) models.DrawInstruction {
	return models.DrawInstruction{
		Points:  [2]models.LatLon{a, b},
		Color:   gridColor,
		Weight:  gridWeight,
		Opacity: gridOpacity,
		Popup:   strconv.FormatFloat(round5(label), 'f', -1, 64),
	}
}

// linspace returns n evenly spaced values over [lo, hi].
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
