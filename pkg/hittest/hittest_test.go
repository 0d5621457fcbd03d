package hittest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

func box(id string, x, y, w, h float64) geometry.Box {
	return geometry.CreateBox(id, x, y, w, h, id, geometry.DefaultColor)
}

func TestCornerBeatsEdge(t *testing.T) {
	boxes := []geometry.Box{box("a", 10, 10, 100, 100)}

	got := Test(geometry.Pt(110, 10), boxes)

	assert.Equal(t, Result{Kind: Corner, BoxID: "a", Corner: geometry.TopRight}, got)
}

func TestCornerRadiusIsInclusive(t *testing.T) {
	boxes := []geometry.Box{box("a", 100, 100, 100, 100)}

	got := Test(geometry.Pt(88, 100), boxes)
	assert.Equal(t, Corner, got.Kind)
	assert.Equal(t, geometry.TopLeft, got.Corner)

	// 12.5 away from the corner and outside the box extent
	got = Test(geometry.Pt(87.5, 100), boxes)
	assert.Equal(t, None, got.Kind)
}

func TestEdgeHits(t *testing.T) {
	boxes := []geometry.Box{box("a", 100, 100, 100, 100)}

	tests := []struct {
		name string
		p    geometry.Point
		want Kind
	}{
		{"top edge", geometry.Pt(150, 105), Edge},
		{"bottom edge", geometry.Pt(150, 191), Edge},
		{"left edge outside", geometry.Pt(95, 150), Edge},
		{"right edge", geometry.Pt(200, 150), Edge},
		{"exactly tolerance away", geometry.Pt(150, 90), None},
		{"interior", geometry.Pt(150, 150), None},
		{"beyond edge extent", geometry.Pt(150, 215), None},
		{"far away", geometry.Pt(500, 500), None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Test(tt.p, boxes)
			assert.Equal(t, tt.want, got.Kind)
			if tt.want == Edge {
				assert.Equal(t, "a", got.BoxID)
			}
		})
	}
}

func TestEdgePrefersNewestBox(t *testing.T) {
	boxes := []geometry.Box{
		box("old", 100, 100, 100, 100),
		box("new", 100, 100, 200, 200),
	}

	got := Test(geometry.Pt(150, 102), boxes)

	assert.Equal(t, Edge, got.Kind)
	assert.Equal(t, "new", got.BoxID)
}

func TestOverlappingCornersResolveInCollectionOrder(t *testing.T) {
	boxes := []geometry.Box{
		box("first", 0, 0, 50, 50),
		box("second", 55, 55, 50, 50),
	}

	got := Test(geometry.Pt(52, 52), boxes)

	assert.Equal(t, Corner, got.Kind)
	assert.Equal(t, "first", got.BoxID)
	assert.Equal(t, geometry.BottomRight, got.Corner)
}

func TestEmptyCollection(t *testing.T) {
	assert.Equal(t, Result{Kind: None}, Test(geometry.Pt(0, 0), nil))
}

func TestCursor(t *testing.T) {
	assert.Equal(t, "pointer", Cursor(Result{Kind: Corner}))
	assert.Equal(t, "grab", Cursor(Result{Kind: Edge}))
	assert.Equal(t, "crosshair", Cursor(Result{}))
}
