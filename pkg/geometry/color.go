package geometry

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultColor is assigned to boxes drawn in the editor.
const DefaultColor = "#60a5fa"

// Palette is the fixed set of colors offered by the editor.
var Palette = []string{
	"#60a5fa", // blue
	"#f87171", // red
	"#4ade80", // green
	"#fbbf24", // amber
	"#a78bfa", // violet
	"#f472b6", // pink
	"#22d3ee", // cyan
	"#fb923c", // orange
}

// NormalizeColor validates a hex color and returns it in lowercase "#rrggbb" form.
// Palette entries and arbitrary hex values are both accepted.
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c.Hex(), nil
}

// ParseColor converts a hex color to an opaque RGBA value.
// Unparseable input falls back to DefaultColor.
func ParseColor(s string) color.NRGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		c, _ = colorful.Hex(DefaultColor)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Brighten lifts every channel of a hex color by percent of full scale, clamped at 255.
// The editor uses it to highlight the selected box.
func Brighten(hex string, percent float64) string {
	base := ParseColor(hex)
	amt := int(math.Round(2.55 * percent))
	lift := func(v uint8) uint8 {
		n := int(v) + amt
		if n > 255 {
			n = 255
		}
		if n < 0 {
			n = 0
		}
		return uint8(n)
	}
	return fmt.Sprintf("#%02x%02x%02x", lift(base.R), lift(base.G), lift(base.B))
}
