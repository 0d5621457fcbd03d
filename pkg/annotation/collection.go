// Package annotation holds the ordered set of boxes shown for one image.
package annotation

import "github.com/menta2k/image-annotator/pkg/geometry"

// Collection is an ordered sequence of boxes. Insertion order is kept for stable
// list rendering and hit-test ordering. The zero value is an empty collection.
//
// Every method returns a new Collection; the receiver is never modified, so a
// state snapshot holding a Collection stays valid after later edits.
type Collection struct {
	boxes []geometry.Box
}

// New returns a collection holding a copy of boxes.
func New(boxes ...geometry.Box) Collection {
	return Collection{boxes: clone(boxes)}
}

// Len returns the number of boxes.
func (c Collection) Len() int { return len(c.boxes) }

// Boxes returns a copy of the boxes in insertion order.
func (c Collection) Boxes() []geometry.Box { return clone(c.boxes) }

// Find returns the box with the given id.
func (c Collection) Find(id string) (geometry.Box, bool) {
	if i := c.index(id); i >= 0 {
		return c.boxes[i], true
	}
	return geometry.Box{}, false
}

// Add appends a box.
func (c Collection) Add(b geometry.Box) Collection {
	out := make([]geometry.Box, len(c.boxes), len(c.boxes)+1)
	copy(out, c.boxes)
	return Collection{boxes: append(out, b)}
}

// Replace swaps in the box with the same id, keeping its position in the order.
// Unknown ids leave the collection unchanged.
func (c Collection) Replace(b geometry.Box) Collection {
	i := c.index(b.ID)
	if i < 0 {
		return c
	}
	out := clone(c.boxes)
	out[i] = b
	return Collection{boxes: out}
}

// Remove drops the box with the given id.
func (c Collection) Remove(id string) Collection {
	i := c.index(id)
	if i < 0 {
		return c
	}
	out := make([]geometry.Box, 0, len(c.boxes)-1)
	out = append(out, c.boxes[:i]...)
	out = append(out, c.boxes[i+1:]...)
	return Collection{boxes: out}
}

// Clear returns an empty collection.
func (c Collection) Clear() Collection {
	return Collection{}
}

func (c Collection) index(id string) int {
	for i := range c.boxes {
		if c.boxes[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(boxes []geometry.Box) []geometry.Box {
	if len(boxes) == 0 {
		return nil
	}
	out := make([]geometry.Box, len(boxes))
	copy(out, boxes)
	return out
}
