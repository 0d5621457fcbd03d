package processing

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

// Marker sizes in image pixels.
const (
	KeypointRadius = 8.0
	previewColor   = geometry.DefaultColor
)

// OverlayOptions selects what is highlighted on an overlay.
type OverlayOptions struct {
	Selected   string
	Preview    *geometry.Rect
	ShowLabels bool
}

// RenderOverlay draws boxes, their corner markers and an optional draw preview on
// top of a copy of img. Coordinates are image-space, so the result has the natural
// size of img.
func (p *Processor) RenderOverlay(img image.Image, boxes []geometry.Box, opts OverlayOptions) image.Image {
	dc := gg.NewContextForImage(img)

	// diagonals first so the outlines stay on top
	for _, b := range boxes {
		if b.ID == opts.Selected {
			drawDiagonals(dc, b)
		}
	}

	for _, b := range boxes {
		selected := b.ID == opts.Selected
		c := b.Color
		if selected {
			c = geometry.Brighten(c, 20)
		}
		drawBox(dc, b, c, selected, opts.ShowLabels)
	}

	if opts.Preview != nil {
		drawPreview(dc, *opts.Preview)
	}

	return dc.Image()
}

func drawDiagonals(dc *gg.Context, b geometry.Box) {
	c := geometry.ParseColor(b.Color)
	c.A = 77

	dc.Push()
	dc.SetColor(c)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	tl, tr := b.Corner(geometry.TopLeft), b.Corner(geometry.TopRight)
	bl, br := b.Corner(geometry.BottomLeft), b.Corner(geometry.BottomRight)
	dc.DrawLine(tl.X, tl.Y, br.X, br.Y)
	dc.Stroke()
	dc.DrawLine(tr.X, tr.Y, bl.X, bl.Y)
	dc.Stroke()
	dc.Pop()
}

func drawBox(dc *gg.Context, b geometry.Box, hex string, selected, label bool) {
	c := geometry.ParseColor(hex)

	fill := c
	fill.A = 15
	if selected {
		fill.A = 30
	}
	dc.SetColor(fill)
	dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	dc.Fill()

	dc.SetColor(c)
	dc.SetDash()
	if selected {
		dc.SetLineWidth(2)
	} else {
		dc.SetLineWidth(1.5)
	}
	dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	dc.Stroke()

	r := KeypointRadius - 1
	if selected {
		r = KeypointRadius + 1
	}
	for _, corner := range b.Corners {
		dc.SetColor(c)
		dc.DrawCircle(corner.X, corner.Y, r)
		dc.Fill()

		dc.SetRGBA(1, 1, 1, 0.7)
		dc.SetLineWidth(1.5)
		dc.DrawCircle(corner.X, corner.Y, r)
		dc.Stroke()
	}

	if label && b.Label != "" {
		dc.SetColor(c)
		dc.DrawStringAnchored(b.Label, b.X+2, b.Y-4, 0, 0)
	}
}

func drawPreview(dc *gg.Context, r geometry.Rect) {
	c := geometry.ParseColor(previewColor)

	fill := c
	fill.A = 25
	dc.SetColor(fill)
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	dc.Fill()

	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.SetDash(6, 4)
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	dc.Stroke()
	dc.SetDash()
}
