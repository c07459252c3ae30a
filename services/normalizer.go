package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cml-linkmap/models"
	"cml-linkmap/utils"
)

// Canonical column names.
const (
	ColLinkID      = "link_id"
	ColHopID       = "hop_id"
	ColCarrier     = "carrier"
	ColTxLatitude  = "tx_latitude"
	ColTxLongitude = "tx_longitude"
	ColRxLatitude  = "rx_latitude"
	ColRxLongitude = "rx_longitude"
)

// DefaultSynonyms maps normalized vendor header names to canonical columns.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"link id": ColLinkID, "link_id": ColLinkID, "linkid": ColLinkID, "link": ColLinkID,
		"link name": ColLinkID, "id": ColLinkID,
		"hop id": ColHopID, "hop_id": ColHopID, "hopid": ColHopID, "hop": ColHopID,
		"carrier": ColCarrier, "company": ColCarrier, "operator": ColCarrier, "vendor": ColCarrier,
		"tx site latitude": ColTxLatitude, "tx_site_latitude": ColTxLatitude, "tx latitude": ColTxLatitude,
		"tx_latitude": ColTxLatitude, "tx_lat": ColTxLatitude, "site_a_latitude": ColTxLatitude,
		"tx site longitude": ColTxLongitude, "tx_site_longitude": ColTxLongitude, "tx longitude": ColTxLongitude,
		"tx_longitude": ColTxLongitude, "tx_lon": ColTxLongitude, "site_a_longitude": ColTxLongitude,
		"rx site latitude": ColRxLatitude, "rx_site_latitude": ColRxLatitude, "rx latitude": ColRxLatitude,
		"rx_latitude": ColRxLatitude, "rx_lat": ColRxLatitude, "site_b_latitude": ColRxLatitude,
		"rx site longitude": ColRxLongitude, "rx_site_longitude": ColRxLongitude, "rx longitude": ColRxLongitude,
		"rx_longitude": ColRxLongitude, "rx_lon": ColRxLongitude, "site_b_longitude": ColRxLongitude,
	}
}

// DefaultMultiValued lists identifier columns whose cells hold several
// comma-separated link ids. They are only consulted when no plain identifier
// column exists.
func DefaultMultiValued() []string {
	return []string{"up_valid_names", "valid_names", "link_names"}
}

// NormalizerConfig is the rename policy of a Normalizer.
type NormalizerConfig struct {
	Synonyms    map[string]string
	MultiValued []string
	// Carrier replaces the sentinel for sources without a carrier column.
	Carrier string
}

// NormalizeResult is the canonical view of one raw table.
type NormalizeResult struct {
	Records []*models.LinkRecord
	// Present holds the canonical columns found in the source header.
	Present map[string]bool
	// Exploded counts rows added by splitting multi-valued identifier cells.
	Exploded int
	// IDColumn is the source column the identifiers came from.
	IDColumn string
}

// Normalizer maps vendor-specific tables onto LinkRecords.
type Normalizer struct {
	cfg    NormalizerConfig
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer. Zero-valued config fields fall back to
// the built-in tables.
func NewNormalizer(cfg NormalizerConfig, logger *utils.Logger) *Normalizer {
	if cfg.Synonyms == nil {
		cfg.Synonyms = DefaultSynonyms()
	}
	if cfg.MultiValued == nil {
		cfg.MultiValued = DefaultMultiValued()
	}
	cfg.Carrier = normaliseCarrier(cfg.Carrier)
	return &Normalizer{cfg: cfg, logger: logger}
}

var spaceRE = regexp.MustCompile(`\s+`)

// normaliseHeader trims, lower-cases and collapses internal whitespace.
func normaliseHeader(s string) string {
	return spaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

func normaliseCarrier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize converts every row of t. It never fails: unknown columns are
// ignored and missing ones are back-filled with sentinels.
func (n *Normalizer) Normalize(t *models.RawTable) *NormalizeResult {
	res := &NormalizeResult{Present: make(map[string]bool)}

	cols := make(map[string]int)
	multiCol := -1
	for i, h := range t.Header {
		name := normaliseHeader(h)
		if canon, ok := n.cfg.Synonyms[name]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
				res.Present[canon] = true
				if canon == ColLinkID {
					res.IDColumn = h
				}
			}
			continue
		}
		if multiCol < 0 && n.isMultiValued(name) {
			multiCol = i
		}
	}

	_, hasID := cols[ColLinkID]
	if !hasID && multiCol >= 0 {
		res.IDColumn = t.Header[multiCol]
		res.Present[ColLinkID] = true
		n.logger.Debug("[normalizer] %s: no identifier column, splitting %q", t.Source, res.IDColumn)
	}
	if !hasID && multiCol < 0 {
		n.logger.Warn("[normalizer] %s: no recognizable link identifier column", t.Source)
		return res
	}

	for _, row := range t.Rows {
		base := n.record(row, cols)
		if hasID {
			res.Records = append(res.Records, base)
			continue
		}
		ids := splitIDs(cell(row, multiCol))
		if len(ids) == 0 {
			res.Records = append(res.Records, base)
			continue
		}
		for i, id := range ids {
			r := base.Clone()
			r.LinkID = id
			res.Records = append(res.Records, r)
			if i > 0 {
				res.Exploded++
			}
		}
	}
	return res
}

func (n *Normalizer) isMultiValued(name string) bool {
	for _, m := range n.cfg.MultiValued {
		if name == normaliseHeader(m) {
			return true
		}
	}
	return false
}

func (n *Normalizer) record(row []string, cols map[string]int) *models.LinkRecord {
	r := models.NewLinkRecord("")
	if i, ok := cols[ColLinkID]; ok {
		r.LinkID = strings.TrimSpace(cell(row, i))
	}
	if i, ok := cols[ColHopID]; ok {
		if v := strings.TrimSpace(cell(row, i)); v != "" {
			r.HopID = v
		}
	}
	if i, ok := cols[ColCarrier]; ok {
		if v := normaliseCarrier(cell(row, i)); v != "" {
			r.Carrier = v
		}
	}
	if r.Carrier == models.UnknownCarrier && n.cfg.Carrier != "" {
		r.Carrier = n.cfg.Carrier
	}
	r.TxLatitude = coordinate(row, cols, ColTxLatitude)
	r.TxLongitude = coordinate(row, cols, ColTxLongitude)
	r.RxLatitude = coordinate(row, cols, ColRxLatitude)
	r.RxLongitude = coordinate(row, cols, ColRxLongitude)
	return r
}

func coordinate(row []string, cols map[string]int, name string) float64 {
	i, ok := cols[name]
	if !ok {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, i)), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func splitIDs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.Trim(p, " '\"[]"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
