// Package viewport maps pointer coordinates to image-space under a zoom factor.
//
// The rendering surface is assumed to share its origin with the image, so there is
// no pan offset; scrolling is left to the surface itself.
package viewport

import (
	"math"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

// Zoom limits.
const (
	MinZoom     = 0.25
	MaxZoom     = 3.0
	ZoomStep    = 0.25
	DefaultZoom = 1.0
)

// ToImageSpace converts a screen-space position to image-space.
func ToImageSpace(screenX, screenY, zoom float64) (float64, float64) {
	return screenX / zoom, screenY / zoom
}

// ToScreenSpace converts an image-space position to screen-space.
func ToScreenSpace(x, y, zoom float64) (float64, float64) {
	return x * zoom, y * zoom
}

// ClampZoom snaps z to the nearest step and bounds it to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return DefaultZoom
	}
	z = math.Round(z/ZoomStep) * ZoomStep
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// Transform is the view state of one displayed image.
type Transform struct {
	Zoom    float64       `json:"zoom"`
	Surface geometry.Size `json:"surface"`
}

// New returns a transform at default zoom for an image of the given natural size.
func New(width, height float64) Transform {
	return Transform{Zoom: DefaultZoom, Surface: geometry.Size{Width: width, Height: height}}
}

// ToImageSpace converts a screen-space point using the current zoom.
func (t Transform) ToImageSpace(p geometry.Point) geometry.Point {
	x, y := ToImageSpace(p.X, p.Y, t.zoom())
	return geometry.Pt(x, y)
}

// ToScreenSpace converts an image-space point using the current zoom.
func (t Transform) ToScreenSpace(p geometry.Point) geometry.Point {
	x, y := ToScreenSpace(p.X, p.Y, t.zoom())
	return geometry.Pt(x, y)
}

// WithZoom returns the transform at zoom z, snapped and clamped.
func (t Transform) WithZoom(z float64) Transform {
	t.Zoom = ClampZoom(z)
	return t
}

// ZoomIn raises the zoom by one step.
func (t Transform) ZoomIn() Transform {
	return t.WithZoom(t.zoom() + ZoomStep)
}

// ZoomOut lowers the zoom by one step.
func (t Transform) ZoomOut() Transform {
	return t.WithZoom(t.zoom() - ZoomStep)
}

// Reset restores the default zoom. The surface size is kept.
func (t Transform) Reset() Transform {
	t.Zoom = DefaultZoom
	return t
}

// DisplaySize is the scroll extent of the surface at the current zoom.
func (t Transform) DisplaySize() geometry.Size {
	z := t.zoom()
	return geometry.Size{Width: t.Surface.Width * z, Height: t.Surface.Height * z}
}

// zoom treats the zero value as the default so an unset Transform never divides by zero.
func (t Transform) zoom() float64 {
	if t.Zoom <= 0 {
		return DefaultZoom
	}
	return t.Zoom
}
