package geometry

import "fmt"

// MinResizeSize is the smallest width or height a box may have after a corner drag.
const MinResizeSize = 20.0

// CornerPosition names one of the four corner markers of a box.
type CornerPosition int

const (
	TopLeft CornerPosition = iota
	TopRight
	BottomLeft
	BottomRight
)

// CornerPositions lists the corners in the order they are stored on a Box.
var CornerPositions = [4]CornerPosition{TopLeft, TopRight, BottomLeft, BottomRight}

// String returns the export name of the corner ("topLeft", ...).
func (c CornerPosition) String() string {
	switch c {
	case TopLeft:
		return "topLeft"
	case TopRight:
		return "topRight"
	case BottomLeft:
		return "bottomLeft"
	case BottomRight:
		return "bottomRight"
	default:
		return fmt.Sprintf("corner(%d)", int(c))
	}
}

// MarshalText encodes the corner by name.
func (c CornerPosition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a corner name produced by MarshalText.
func (c *CornerPosition) UnmarshalText(text []byte) error {
	pos, err := ParseCornerPosition(string(text))
	if err != nil {
		return err
	}
	*c = pos
	return nil
}

// suffix is appended to the box id to form the corner id.
func (c CornerPosition) suffix() string {
	switch c {
	case TopLeft:
		return "tl"
	case TopRight:
		return "tr"
	case BottomLeft:
		return "bl"
	default:
		return "br"
	}
}

// Opposite returns the diagonally opposite corner, which stays anchored during a resize.
func (c CornerPosition) Opposite() CornerPosition {
	switch c {
	case TopLeft:
		return BottomRight
	case TopRight:
		return BottomLeft
	case BottomLeft:
		return TopRight
	default:
		return TopLeft
	}
}

// ParseCornerPosition parses the export name of a corner.
func ParseCornerPosition(s string) (CornerPosition, error) {
	for _, c := range CornerPositions {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown corner position %q", s)
}

// CornerID returns the deterministic identifier of a box corner.
func CornerID(boxID string, pos CornerPosition) string {
	return boxID + "-" + pos.suffix()
}

// Corner is a derived marker point of a Box. It is never authoritative:
// its coordinates are recomputed from the owning box on every change.
type Corner struct {
	ID       string         `json:"id"`
	Position CornerPosition `json:"position"`
	Point
}

// Box is a rectangle annotation with a label, a display color and four corner markers.
type Box struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Color   string    `json:"color"`
	Corners [4]Corner `json:"keypoints"`
}

// CreateBox constructs a Box and derives its four corners.
func CreateBox(id string, x, y, w, h float64, label, color string) Box {
	b := Box{
		ID:     id,
		Label:  label,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
		Color:  color,
	}
	b.Corners = cornersOf(b)
	return b
}

func cornersOf(b Box) [4]Corner {
	var out [4]Corner
	for i, pos := range CornerPositions {
		out[i] = Corner{ID: CornerID(b.ID, pos), Position: pos, Point: cornerPoint(b, pos)}
	}
	return out
}

func cornerPoint(b Box, pos CornerPosition) Point {
	switch pos {
	case TopLeft:
		return Point{X: b.X, Y: b.Y}
	case TopRight:
		return Point{X: b.X + b.Width, Y: b.Y}
	case BottomLeft:
		return Point{X: b.X, Y: b.Y + b.Height}
	default:
		return Point{X: b.X + b.Width, Y: b.Y + b.Height}
	}
}

// Rect returns the box geometry without its metadata.
func (b Box) Rect() Rect {
	return Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// Position returns the top-left corner of the box.
func (b Box) Position() Point {
	return Point{X: b.X, Y: b.Y}
}

// Corner returns the corner marker at the given position.
func (b Box) Corner(pos CornerPosition) Corner {
	return b.Corners[pos]
}

// Consistent reports whether every corner matches the box position and size exactly.
func (b Box) Consistent() bool {
	return b.Corners == cornersOf(b)
}

// ResizeFromCorner moves one corner to (newX, newY) while the opposite corner stays put.
// When the resulting width or height would fall below MinResizeSize the input box is
// returned unchanged and ok is false; there is never a partial update.
func ResizeFromCorner(b Box, pos CornerPosition, newX, newY float64) (Box, bool) {
	x, y, w, h := b.X, b.Y, b.Width, b.Height

	switch pos {
	case TopLeft:
		w = b.X + b.Width - newX
		h = b.Y + b.Height - newY
		x = newX
		y = newY
	case TopRight:
		w = newX - b.X
		h = b.Y + b.Height - newY
		y = newY
	case BottomLeft:
		w = b.X + b.Width - newX
		h = newY - b.Y
		x = newX
	case BottomRight:
		w = newX - b.X
		h = newY - b.Y
	default:
		return b, false
	}

	if w < MinResizeSize || h < MinResizeSize {
		return b, false
	}

	return CreateBox(b.ID, x, y, w, h, b.Label, b.Color), true
}

// TranslateBox shifts the box by (dx, dy). It is never rejected.
func TranslateBox(b Box, dx, dy float64) Box {
	return CreateBox(b.ID, b.X+dx, b.Y+dy, b.Width, b.Height, b.Label, b.Color)
}

// MoveBoxTo places the top-left of the box at (x, y) keeping its size.
// It is the absolute form of TranslateBox and avoids accumulating a delta.
func MoveBoxTo(b Box, x, y float64) Box {
	return CreateBox(b.ID, x, y, b.Width, b.Height, b.Label, b.Color)
}

// WithColor returns a copy of the box with a different color; geometry is untouched.
func (b Box) WithColor(color string) Box {
	b.Color = color
	return b
}

// WithLabel returns a copy of the box with a different label.
func (b Box) WithLabel(label string) Box {
	b.Label = label
	return b
}
