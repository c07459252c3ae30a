package models

// RunReport holds the diagnostics of one draw call over one metadata file.
type RunReport struct {
	Source             string
	Carriers           []string
	Loaded             int
	Exploded           int
	Unidentified       int
	Duplicates         int
	OutOfBounds        int
	BoundsSkipped      []string
	DroppedByList      []string
	MissingCoordinates []string
	Rendered           int
	Charts             int
	Gridlines          int
}

// Deduplicated is the number of unique link ids in the source.
func (r *RunReport) Deduplicated() int {
	return r.Loaded + r.Exploded - r.Unidentified - r.Duplicates
}
