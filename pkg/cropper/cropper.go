// Package cropper cuts annotated boxes out of their images as training patches.
package cropper

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen}
}

// ParseAspectRatio finds a common ratio by name. "" and "box" keep the box's own shape.
func ParseAspectRatio(name string) (AspectRatio, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "box" {
		return AspectRatio{}, nil
	}
	for _, r := range CommonAspectRatios() {
		if r.Name == name {
			return r, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("unknown aspect ratio %q", name)
}

// CropConfig holds configuration for patch extraction
type CropConfig struct {
	// PaddingRatio grows the box on each side by this fraction of its width and height.
	PaddingRatio float64
	// AspectRatio widens or heightens the padded box around its center. The zero
	// value keeps the box shape.
	AspectRatio AspectRatio
	// Size fits the patch into Size x Size pixels. Zero keeps the natural size.
	Size int
}

// Cropper extracts box patches.
type Cropper struct {
	config CropConfig
}

// New creates a Cropper with a small padding and no resizing.
func New() *Cropper {
	return &Cropper{config: CropConfig{PaddingRatio: 0.1}}
}

// NewWithConfig creates a Cropper with custom configuration
func NewWithConfig(config CropConfig) *Cropper {
	return &Cropper{config: config}
}

// Patch is one box cut out of its image.
type Patch struct {
	Image  image.Image
	BoxID  string
	Label  string
	Region image.Rectangle
}

// Region returns the pixel rectangle cropped for a box. The region is shifted to
// stay inside bounds and shrinks only when it is larger than the image. An empty
// rectangle means the box does not overlap the image.
func (c *Cropper) Region(b geometry.Box, bounds image.Rectangle) image.Rectangle {
	boxRect := image.Rect(
		int(math.Floor(b.X)), int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.Width)), int(math.Ceil(b.Y+b.Height)),
	)
	if b.Width <= 0 || b.Height <= 0 || !boxRect.Overlaps(bounds) {
		return image.Rectangle{}
	}

	w := b.Width * (1 + 2*c.config.PaddingRatio)
	h := b.Height * (1 + 2*c.config.PaddingRatio)
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2

	if ar := c.config.AspectRatio; ar.Width > 0 && ar.Height > 0 {
		r := float64(ar.Width) / float64(ar.Height)
		if w/h < r {
			w = h * r
		} else {
			h = w / r
		}
	}

	w = math.Min(w, float64(bounds.Dx()))
	h = math.Min(h, float64(bounds.Dy()))
	x := clamp(cx-w/2, float64(bounds.Min.X), float64(bounds.Max.X)-w)
	y := clamp(cy-h/2, float64(bounds.Min.Y), float64(bounds.Max.Y)-h)

	r := image.Rect(int(math.Floor(x)), int(math.Floor(y)), int(math.Ceil(x+w)), int(math.Ceil(y+h)))
	return r.Intersect(bounds)
}

// Crop cuts one box out of img.
func (c *Cropper) Crop(img image.Image, b geometry.Box) (Patch, error) {
	region := c.Region(b, img.Bounds())
	if region.Empty() {
		return Patch{}, fmt.Errorf("box %s lies outside the image", b.ID)
	}

	var patch image.Image = imaging.Crop(img, region)
	if c.config.Size > 0 {
		patch = imaging.Fit(patch, c.config.Size, c.config.Size, imaging.Lanczos)
	}
	return Patch{Image: patch, BoxID: b.ID, Label: b.Label, Region: region}, nil
}

// CropAll cuts every box that overlaps img, in box order. Boxes outside the image
// are skipped.
func (c *Cropper) CropAll(img image.Image, boxes []geometry.Box) []Patch {
	patches := make([]Patch, 0, len(boxes))
	for _, b := range boxes {
		p, err := c.Crop(img, b)
		if err != nil {
			continue
		}
		patches = append(patches, p)
	}
	return patches
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
