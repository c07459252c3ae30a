package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"cml-linkmap/models"
)

// FeatureCollection converts link polylines into GeoJSON LineStrings. Chart
// payloads are reduced to a sample count.
func FeatureCollection(lines []models.DrawInstruction) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range lines {
		f := geojson.NewFeature(orb.LineString{
			{l.Points[0].Lon, l.Points[0].Lat},
			{l.Points[1].Lon, l.Points[1].Lat},
		})
		f.Properties["link_id"] = l.LinkID
		f.Properties["carrier"] = l.Carrier
		f.Properties["color"] = l.Color
		f.Properties["popup"] = l.Popup
		if !l.Chart.Empty() {
			f.Properties["samples"] = len(l.Chart.Samples)
		}
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON saves lines as a FeatureCollection at path.
func WriteGeoJSON(path string, lines []models.DrawInstruction) error {
	data, err := FeatureCollection(lines).MarshalJSON()
	if err != nil {
		return fmt.Errorf("geojson: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("geojson: create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("geojson: write %q: %w", path, err)
	}
	return nil
}
