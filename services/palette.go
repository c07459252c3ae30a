package services

import "strings"

var defaultColors = []string{
	"purple", "red", "blue", "green", "orange", "darkred",
	"cadetblue", "darkgreen", "darkblue", "teal", "indigo", "gray",
}

// Palette hands out a stable color per carrier in order of first use.
// Colors are reused once the list is exhausted.
type Palette struct {
	colors   []string
	assigned map[string]string
}

// NewPalette creates a Palette over colors, or the default list when none are given.
func NewPalette(colors ...string) *Palette {
	if len(colors) == 0 {
		colors = defaultColors
	}
	return &Palette{colors: colors, assigned: make(map[string]string)}
}

// Color returns the color of carrier.
func (p *Palette) Color(carrier string) string {
	carrier = strings.ToLower(carrier)
	if c, ok := p.assigned[carrier]; ok {
		return c
	}
	c := p.colors[len(p.assigned)%len(p.colors)]
	p.assigned[carrier] = c
	return c
}

// Legend returns carrier to color assignments made so far.
func (p *Palette) Legend() map[string]string {
	out := make(map[string]string, len(p.assigned))
	for k, v := range p.assigned {
		out[k] = v
	}
	return out
}
