package editor

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned by Apply for an unrecognized action type.
var ErrUnknownAction = errors.New("unknown action")

// Action is a serializable editor operation. Pointer actions ("down", "move",
// "up", "leave") carry screen-space coordinates; the others name a command.
type Action struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	ID    string  `json:"id,omitempty"`
	Color string  `json:"color,omitempty"`
	Label string  `json:"label,omitempty"`
	Zoom  float64 `json:"zoom,omitempty"`
	Image string  `json:"image,omitempty"`
}

// Apply runs a single action. An invalid color or an unknown type is an error and
// leaves the state unchanged.
func (e *Editor) Apply(a Action) error {
	if kind, err := ParseEventKind(a.Type); err == nil {
		e.Handle(kind, a.X, a.Y)
		return nil
	}

	switch a.Type {
	case "zoom_in":
		e.ZoomIn()
	case "zoom_out":
		e.ZoomOut()
	case "zoom_reset":
		e.ResetZoom()
	case "zoom":
		e.SetZoom(a.Zoom)
	case "select":
		e.Select(a.ID)
	case "toggle_expanded":
		e.ToggleExpanded(a.ID)
	case "delete_selected":
		e.DeleteSelected()
	case "clear":
		e.ClearAll()
	case "set_label":
		e.SetLabel(a.ID, a.Label)
	case "set_color":
		if a.ID == "" {
			return e.SetSelectedColor(a.Color)
		}
		return e.SetColor(a.ID, a.Color)
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, a.Type)
	}
	return nil
}

// Apply runs an action on the workspace. "next", "previous" and "image" navigate;
// "image" matches a.Image against ids first, then names. Everything else goes to
// the current editor.
func (w *Workspace) Apply(a Action) error {
	switch a.Type {
	case "next":
		w.Next()
		return nil
	case "previous":
		w.Previous()
		return nil
	case "image":
		err := w.SelectImage(a.Image)
		if err == nil || errors.Is(err, ErrNoImages) {
			return err
		}
		for _, img := range w.images {
			if img.Name == a.Image {
				return w.SelectImage(img.ID)
			}
		}
		return err
	}
	return w.editor.Apply(a)
}
