package services

import (
	"fmt"

	"cml-linkmap/models"
	"cml-linkmap/utils"
)

// BoundsOutcome reports what the geographic filter did. A bound that could
// not be evaluated is listed in Skipped instead of failing the run.
type BoundsOutcome struct {
	Records []*models.LinkRecord
	Applied []string
	Skipped []string
	Removed int
}

// Partition splits filtered records into what gets drawn and what does not.
type Partition struct {
	Render  []*models.LinkRecord
	Dropped []string
	Missing []string
}

// LinkFilter implements deduplication, drop-lists and bounding-box filtering.
type LinkFilter struct {
	logger *utils.Logger
}

// NewLinkFilter creates a LinkFilter with the given logger.
func NewLinkFilter(logger *utils.Logger) *LinkFilter {
	return &LinkFilter{logger: logger}
}

// Deduplicate keeps the first record of every link id. Records without an id
// cannot be keyed and are discarded.
func (f *LinkFilter) Deduplicate(records []*models.LinkRecord) (kept []*models.LinkRecord, duplicates, unidentified int) {
	seen := utils.NewIDSet()
	kept = make([]*models.LinkRecord, 0, len(records))

	for _, r := range records {
		if r.LinkID == "" {
			unidentified++
			continue
		}
		if !seen.Add(r.LinkID) {
			f.logger.Debug("[filter] Duplicate link id skipped: %s", r.LinkID)
			duplicates++
			continue
		}
		kept = append(kept, r)
	}
	return kept, duplicates, unidentified
}

type boundCheck struct {
	name  string
	value *float64
	cols  [2]string
	keep  func(r *models.LinkRecord, v float64) bool
}

// ApplyBounds drops records whose endpoints fall outside the set sides of b.
// Sides are strict and checked on both Tx and Rx ends. Records lacking
// coordinates pass through; they are accounted for by Partition.
func (f *LinkFilter) ApplyBounds(records []*models.LinkRecord, b models.Bounds, present map[string]bool) BoundsOutcome {
	checks := []boundCheck{
		{"max_lon", b.MaxLon, [2]string{ColTxLongitude, ColRxLongitude}, func(r *models.LinkRecord, v float64) bool {
			return r.TxLongitude < v && r.RxLongitude < v
		}},
		{"min_lon", b.MinLon, [2]string{ColTxLongitude, ColRxLongitude}, func(r *models.LinkRecord, v float64) bool {
			return r.TxLongitude > v && r.RxLongitude > v
		}},
		{"max_lat", b.MaxLat, [2]string{ColTxLatitude, ColRxLatitude}, func(r *models.LinkRecord, v float64) bool {
			return r.TxLatitude < v && r.RxLatitude < v
		}},
		{"min_lat", b.MinLat, [2]string{ColTxLatitude, ColRxLatitude}, func(r *models.LinkRecord, v float64) bool {
			return r.TxLatitude > v && r.RxLatitude > v
		}},
	}

	out := BoundsOutcome{Records: records}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if !present[c.cols[0]] || !present[c.cols[1]] {
			reason := fmt.Sprintf("%s: columns %s/%s absent", c.name, c.cols[0], c.cols[1])
			f.logger.Warn("[filter] Bound not applied, %s", reason)
			out.Skipped = append(out.Skipped, reason)
			continue
		}

		kept := out.Records[:0:0]
		for _, r := range out.Records {
			if !r.HasCoordinates() || c.keep(r, *c.value) {
				kept = append(kept, r)
				continue
			}
			f.logger.Debug("[filter] Link %s outside %s=%g", r.LinkID, c.name, *c.value)
			out.Removed++
		}
		out.Records = kept
		out.Applied = append(out.Applied, c.name)
	}
	return out
}

// Partition separates drop-listed links and links without coordinates from
// the ones that will be drawn, logging each exclusion.
func (f *LinkFilter) Partition(records []*models.LinkRecord, drop *utils.IDSet) Partition {
	var p Partition
	for _, r := range records {
		if drop.Contains(r.LinkID) {
			f.logger.Info("Link ID %s has been dropped", r.LinkID)
			p.Dropped = append(p.Dropped, r.LinkID)
			continue
		}
		if !r.HasCoordinates() {
			f.logger.Info("No metadata for link %s", r.LinkID)
			p.Missing = append(p.Missing, r.LinkID)
			continue
		}
		p.Render = append(p.Render, r)
	}
	return p
}
