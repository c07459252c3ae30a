package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cml-linkmap/models"
)

func TestExtentIgnoresMissingCoordinates(t *testing.T) {
	b, ok := Extent([]*models.LinkRecord{
		link("a", 32, 35, 33, 36),
		link("b", nan, nan, 31, 34.5),
		models.NewLinkRecord("c"),
	})
	if !ok {
		t.Fatal("extent should be found")
	}
	if b.Min.Lat() != 31 || b.Max.Lat() != 33 || b.Min.Lon() != 34.5 || b.Max.Lon() != 36 {
		t.Errorf("unexpected extent %v", b)
	}

	if _, ok := Extent([]*models.LinkRecord{models.NewLinkRecord("x")}); ok {
		t.Error("no finite endpoint should yield no extent")
	}
}

func TestGridlines(t *testing.T) {
	grid := Gridlines([]*models.LinkRecord{link("a", 32, 35, 33, 36)}, 3)

	if len(grid) != 6 {
		t.Fatalf("got %d lines, want 6", len(grid))
	}
	var popups []string
	for _, g := range grid {
		popups = append(popups, g.Popup)
		if g.Color != "black" || g.Weight != 0.5 || g.Opacity != 0.5 {
			t.Errorf("unexpected style %+v", g)
		}
	}
	if diff := cmp.Diff([]string{"32", "32.5", "33", "35", "35.5", "36"}, popups); diff != "" {
		t.Errorf("popups mismatch (-want +got):\n%s", diff)
	}

	lat := grid[1].Points
	if lat[0] != (models.LatLon{Lat: 32.5, Lon: -180}) || lat[1] != (models.LatLon{Lat: 32.5, Lon: 180}) {
		t.Errorf("latitude line should span the globe, got %v", lat)
	}
	lon := grid[4].Points
	if lon[0] != (models.LatLon{Lat: -90, Lon: 35.5}) || lon[1] != (models.LatLon{Lat: 90, Lon: 35.5}) {
		t.Errorf("longitude line should span the globe, got %v", lon)
	}
}

func TestGridlinesRoundsPopups(t *testing.T) {
	grid := Gridlines([]*models.LinkRecord{link("a", 0, 0, 1, 1)}, 4)
	if got := grid[1].Popup; got != "0.33333" {
		t.Errorf("popup = %q, want 0.33333", got)
	}
}

func TestGridlinesDegenerate(t *testing.T) {
	if g := Gridlines([]*models.LinkRecord{link("a", 1, 1, 2, 2)}, 0); g != nil {
		t.Errorf("n=0 should produce no lines, got %d", len(g))
	}
	if g := Gridlines(nil, 5); g != nil {
		t.Errorf("no records should produce no lines, got %d", len(g))
	}
	if g := Gridlines([]*models.LinkRecord{link("a", 1, 2, 3, 4)}, 1); len(g) != 2 {
		t.Errorf("n=1 should produce one line per axis, got %d", len(g))
	}
}

func TestLinspace(t *testing.T) {
	if diff := cmp.Diff([]float64{0, 0.25, 0.5, 0.75, 1}, linspace(0, 1, 5)); diff != "" {
		t.Errorf("linspace mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{7}, linspace(7, 9, 1)); diff != "" {
		t.Errorf("linspace mismatch (-want +got):\n%s", diff)
	}
}
