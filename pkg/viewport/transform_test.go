package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

func TestSpaceConversion(t *testing.T) {
	x, y := ToImageSpace(150, 60, 1.5)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 40.0, y)

	sx, sy := ToScreenSpace(x, y, 1.5)
	assert.Equal(t, 150.0, sx)
	assert.Equal(t, 60.0, sy)
}

func TestZoomSteps(t *testing.T) {
	tr := New(800, 600)
	assert.Equal(t, DefaultZoom, tr.Zoom)

	for i := 0; i < 20; i++ {
		tr = tr.ZoomIn()
	}
	assert.Equal(t, MaxZoom, tr.Zoom)

	for i := 0; i < 20; i++ {
		tr = tr.ZoomOut()
	}
	assert.Equal(t, MinZoom, tr.Zoom)

	tr = tr.ZoomIn()
	assert.Equal(t, 0.5, tr.Zoom)

	tr = tr.Reset()
	assert.Equal(t, DefaultZoom, tr.Zoom)
	assert.Equal(t, geometry.Size{Width: 800, Height: 600}, tr.Surface)
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1, 1},
		{1.1, 1},
		{1.2, 1.25},
		{0, MinZoom},
		{-4, MinZoom},
		{9, MaxZoom},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampZoom(tt.in), "zoom %v", tt.in)
	}
}

func TestTransformPoints(t *testing.T) {
	tr := New(400, 300).WithZoom(2)

	assert.Equal(t, geometry.Pt(25, 10), tr.ToImageSpace(geometry.Pt(50, 20)))
	assert.Equal(t, geometry.Pt(50, 20), tr.ToScreenSpace(geometry.Pt(25, 10)))
	assert.Equal(t, geometry.Size{Width: 800, Height: 600}, tr.DisplaySize())

	var zero Transform
	assert.Equal(t, geometry.Pt(7, 9), zero.ToImageSpace(geometry.Pt(7, 9)))
}
