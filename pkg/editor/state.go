// Package editor implements the pointer-driven annotation editor.
//
// The core is Step, a pure transition function over State. Editor wraps it with
// id generation, screen-space conversion, logging and observers, and Workspace
// adds navigation between images.
package editor

import (
	"fmt"

	"github.com/menta2k/image-annotator/pkg/annotation"
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/viewport"
)

// MinDrawSize is the size a new box must exceed on both axes to be committed.
const MinDrawSize = 10.0

// Mode is the kind of gesture in progress.
type Mode int

const (
	Idle Mode = iota
	Drawing
	MovingBox
	ResizingCorner
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case MovingBox:
		return "movingBox"
	case ResizingCorner:
		return "resizingCorner"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	for _, c := range []Mode{Idle, Drawing, MovingBox, ResizingCorner} {
		if c.String() == string(text) {
			*m = c
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// Gesture is the in-flight pointer gesture. The zero value is idle.
type Gesture struct {
	Mode   Mode                    `json:"mode"`
	BoxID  string                  `json:"box_id,omitempty"`
	Corner geometry.CornerPosition `json:"corner"`
	Anchor geometry.Point          `json:"anchor"`
	Offset geometry.Point          `json:"offset"`
}

// ImageRef identifies the image being annotated and its natural size.
type ImageRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// State is a snapshot of an editing session. Values are never mutated in place
// by this package; every operation returns a new State.
type State struct {
	Image    ImageRef
	Boxes    annotation.Collection
	Selected string
	Expanded map[string]bool
	Gesture  Gesture
	Preview  *geometry.Rect
	View     viewport.Transform
}

// NewState returns an idle session for img with the given boxes, nothing
// selected and the default zoom.
func NewState(img ImageRef, boxes []geometry.Box) State {
	return State{
		Image: img,
		Boxes: annotation.New(boxes...),
		View:  viewport.New(float64(img.Width), float64(img.Height)),
	}
}

// IsExpanded reports whether the box is expanded in the box list.
func (s State) IsExpanded(id string) bool {
	return s.Expanded[id]
}

func (s State) withExpanded(id string, on bool) State {
	next := make(map[string]bool, len(s.Expanded)+1)
	for k, v := range s.Expanded {
		if v {
			next[k] = true
		}
	}
	if on {
		next[id] = true
	} else {
		delete(next, id)
	}
	s.Expanded = next
	return s
}

// EventKind is a pointer event type.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// ParseEventKind parses the name returned by EventKind.String.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range []EventKind{PointerDown, PointerMove, PointerUp, PointerLeave} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown pointer event %q", s)
}

// Event is a pointer event in image-space.
type Event struct {
	Kind EventKind
	geometry.Point
}

// Down, Move, Up and Leave build image-space events.
func Down(x, y float64) Event  { return Event{Kind: PointerDown, Point: geometry.Pt(x, y)} }
func Move(x, y float64) Event  { return Event{Kind: PointerMove, Point: geometry.Pt(x, y)} }
func Up(x, y float64) Event    { return Event{Kind: PointerUp, Point: geometry.Pt(x, y)} }
func Leave(x, y float64) Event { return Event{Kind: PointerLeave, Point: geometry.Pt(x, y)} }

// EffectKind names an observable outcome of a transition or command.
type EffectKind int

const (
	GestureStarted EffectKind = iota
	GestureEnded
	BoxCreated
	DrawDiscarded
	BoxMoved
	BoxResized
	ResizeRejected
	BoxUpdated
	BoxDeleted
	CollectionCleared
	SelectionChanged
)

var effectNames = map[EffectKind]string{
	GestureStarted:    "gesture_started",
	GestureEnded:      "gesture_ended",
	BoxCreated:        "box_created",
	DrawDiscarded:     "draw_discarded",
	BoxMoved:          "box_moved",
	BoxResized:        "box_resized",
	ResizeRejected:    "resize_rejected",
	BoxUpdated:        "box_updated",
	BoxDeleted:        "box_deleted",
	CollectionCleared: "collection_cleared",
	SelectionChanged:  "selection_changed",
}

func (k EffectKind) String() string {
	if n, ok := effectNames[k]; ok {
		return n
	}
	return fmt.Sprintf("effect(%d)", int(k))
}

// MarshalText encodes the effect by name.
func (k EffectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes an effect name.
func (k *EffectKind) UnmarshalText(text []byte) error {
	for kind, name := range effectNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown effect %q", text)
}

// Effect reports something that happened during a transition. Mode is the
// gesture mode the effect belongs to, when there is one.
type Effect struct {
	Kind  EffectKind `json:"kind"`
	BoxID string     `json:"box_id,omitempty"`
	Mode  Mode       `json:"mode"`
}

// IDSource generates identifiers for new boxes.
type IDSource func() string
