// Package hittest decides what a pointer-down at an image-space point acts on.
package hittest

import (
	"math"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

const (
	// CornerHitRadius is the inclusive distance within which a corner marker is hit.
	CornerHitRadius = 12.0
	// EdgeTolerance is the exclusive distance within which a box edge is hit.
	EdgeTolerance = 10.0
)

// Kind is the type of entity under the pointer.
type Kind int

const (
	None Kind = iota
	Corner
	Edge
)

func (k Kind) String() string {
	switch k {
	case Corner:
		return "corner"
	case Edge:
		return "edge"
	default:
		return "none"
	}
}

// Result describes a hit. Corner is only meaningful when Kind is Corner.
type Result struct {
	Kind   Kind                    `json:"kind"`
	BoxID  string                  `json:"box_id,omitempty"`
	Corner geometry.CornerPosition `json:"corner"`
}

// Test returns the hit for p. Corners of every box are checked before any edge.
func Test(p geometry.Point, boxes []geometry.Box) Result {
	if r, ok := CornerAt(p, boxes); ok {
		return r
	}
	if r, ok := EdgeAt(p, boxes); ok {
		return r
	}
	return Result{Kind: None}
}

// CornerAt returns the first corner within CornerHitRadius of p, scanning boxes in
// collection order. Overlapping corners resolve to the earliest box.
func CornerAt(p geometry.Point, boxes []geometry.Box) (Result, bool) {
	for _, b := range boxes {
		for _, c := range b.Corners {
			if p.Distance(c.Point) <= CornerHitRadius {
				return Result{Kind: Corner, BoxID: b.ID, Corner: c.Position}, true
			}
		}
	}
	return Result{}, false
}

// EdgeAt returns the most recently added box with an edge near p.
func EdgeAt(p geometry.Point, boxes []geometry.Box) (Result, bool) {
	for i := len(boxes) - 1; i >= 0; i-- {
		if nearEdge(p, boxes[i]) {
			return Result{Kind: Edge, BoxID: boxes[i].ID}, true
		}
	}
	return Result{}, false
}

func nearEdge(p geometry.Point, b geometry.Box) bool {
	left, right := b.X, b.X+b.Width
	top, bottom := b.Y, b.Y+b.Height

	withinX := p.X >= left && p.X <= right
	withinY := p.Y >= top && p.Y <= bottom

	switch {
	case math.Abs(p.Y-top) < EdgeTolerance && withinX:
		return true
	case math.Abs(p.Y-bottom) < EdgeTolerance && withinX:
		return true
	case math.Abs(p.X-left) < EdgeTolerance && withinY:
		return true
	case math.Abs(p.X-right) < EdgeTolerance && withinY:
		return true
	}
	return false
}

// Cursor names the pointer cursor to show while hovering over r.
func Cursor(r Result) string {
	switch r.Kind {
	case Corner:
		return "pointer"
	case Edge:
		return "grab"
	default:
		return "crosshair"
	}
}
