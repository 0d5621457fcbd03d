package editor

import (
	"github.com/menta2k/image-annotator/pkg/geometry"
)

// DeleteSelected removes the selected box and clears the selection.
// It is a no-op when nothing is selected.
func DeleteSelected(s State) (State, []Effect) {
	id := s.Selected
	if id == "" {
		return s, nil
	}
	if _, ok := s.Boxes.Find(id); !ok {
		s.Selected = ""
		return s, []Effect{{Kind: SelectionChanged}}
	}
	s.Boxes = s.Boxes.Remove(id)
	s = s.withExpanded(id, false)
	s.Selected = ""
	return s, []Effect{{Kind: BoxDeleted, BoxID: id}, {Kind: SelectionChanged}}
}

// ClearAll empties the collection and clears the selection.
func ClearAll(s State) (State, []Effect) {
	s.Boxes = s.Boxes.Clear()
	s.Expanded = nil
	s.Selected = ""
	return s, []Effect{{Kind: CollectionCleared}, {Kind: SelectionChanged}}
}

// SetColor changes the color of one box. Geometry is left untouched.
func SetColor(s State, id, color string) (State, []Effect) {
	b, ok := s.Boxes.Find(id)
	if !ok || b.Color == color {
		return s, nil
	}
	s.Boxes = s.Boxes.Replace(b.WithColor(color))
	return s, []Effect{{Kind: BoxUpdated, BoxID: id}}
}

// SetSelectedColor applies SetColor to the selected box, if any.
func SetSelectedColor(s State, color string) (State, []Effect) {
	if s.Selected == "" {
		return s, nil
	}
	return SetColor(s, s.Selected, color)
}

// SetLabel renames one box.
func SetLabel(s State, id, label string) (State, []Effect) {
	b, ok := s.Boxes.Find(id)
	if !ok || b.Label == label {
		return s, nil
	}
	s.Boxes = s.Boxes.Replace(b.WithLabel(label))
	return s, []Effect{{Kind: BoxUpdated, BoxID: id}}
}

// Select selects the box with the given id. An empty id clears the selection;
// unknown ids are ignored.
func Select(s State, id string) (State, []Effect) {
	if id != "" {
		if _, ok := s.Boxes.Find(id); !ok {
			return s, nil
		}
	}
	return selectBox(s, id)
}

// ToggleExpanded flips whether a box shows its corner details in the box list.
func ToggleExpanded(s State, id string) State {
	if _, ok := s.Boxes.Find(id); !ok {
		return s
	}
	return s.withExpanded(id, !s.IsExpanded(id))
}

// ZoomIn, ZoomOut and ResetZoom adjust the view. Box geometry is unaffected.
func ZoomIn(s State) State    { s.View = s.View.ZoomIn(); return s }
func ZoomOut(s State) State   { s.View = s.View.ZoomOut(); return s }
func ResetZoom(s State) State { s.View = s.View.Reset(); return s }

// SetZoom sets the zoom, snapped to a step and clamped.
func SetZoom(s State, z float64) State {
	s.View = s.View.WithZoom(z)
	return s
}

// LoadImage replaces the session with a fresh one for img. Any gesture in
// progress is dropped along with the selection and the zoom.
func LoadImage(img ImageRef, boxes []geometry.Box) State {
	return NewState(img, boxes)
}
