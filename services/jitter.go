package services

import (
	"math"
	"math/rand"

	"cml-linkmap/models"
)

// DefaultJitter is the largest offset, in degrees, added to a coordinate.
const DefaultJitter = 0.0005

// Jitterer separates links that share endpoints by nudging every coordinate
// with an independent uniform offset. Results stay inside ±90/±180.
type Jitterer struct {
	rng       *rand.Rand
	magnitude float64
}

// NewJitterer creates a Jitterer drawing from src. Pass a seeded source for
// reproducible output.
func NewJitterer(src rand.Source, magnitude float64) *Jitterer {
	if magnitude <= 0 || magnitude > DefaultJitter {
		magnitude = DefaultJitter
	}
	return &Jitterer{rng: rand.New(src), magnitude: magnitude}
}

// Apply returns jittered copies of records; the inputs are left untouched.
func (j *Jitterer) Apply(records []*models.LinkRecord) []*models.LinkRecord {
	out := make([]*models.LinkRecord, len(records))
	for i, r := range records {
		c := r.Clone()
		c.TxLatitude = clamp(c.TxLatitude+j.offset(), 90)
		c.TxLongitude = clamp(c.TxLongitude+j.offset(), 180)
		c.RxLatitude = clamp(c.RxLatitude+j.offset(), 90)
		c.RxLongitude = clamp(c.RxLongitude+j.offset(), 180)
		out[i] = c
	}
	return out
}

func (j *Jitterer) offset() float64 {
	return (j.rng.Float64()*2 - 1) * j.magnitude
}

// clamp keeps v within [-limit, limit]. NaN is returned unchanged.
func clamp(v, limit float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
