package models

// LatLon is a point in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is an optional geographic filter. Each side is independent; a nil
// side imposes no constraint.
type Bounds struct {
	MinLat *float64
	MaxLat *float64
	MinLon *float64
	MaxLon *float64
}

// IsZero reports whether no side is set.
func (b Bounds) IsZero() bool {
	return b.MinLat == nil && b.MaxLat == nil && b.MinLon == nil && b.MaxLon == nil
}

// DrawInstruction is a single polyline handed to the renderer.
type DrawInstruction struct {
	LinkID  string         `json:"id,omitempty"`
	Carrier string         `json:"carrier,omitempty"`
	Points  [2]LatLon      `json:"points"`
	Color   string         `json:"color"`
	Weight  float64        `json:"weight"`
	Opacity float64        `json:"opacity"`
	Popup   string         `json:"popup"`
	Chart   *RawDataSeries `json:"chart,omitempty"`
}

// Station kinds.
const (
	StationLink  = "link"
	StationGauge = "gauge"
)

// Station is a link or rain gauge whose position is encoded in a file name.
type Station struct {
	ID    string
	Kind  string
	TxLat float64
	TxLon float64
	RxLat float64
	RxLon float64
}
