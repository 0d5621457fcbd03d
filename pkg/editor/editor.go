package editor

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/hittest"
)

// Observer receives the effects of every event and command applied to an Editor.
type Observer interface {
	Observe(effects []Effect)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(effects []Effect)

// Observe calls f.
func (f ObserverFunc) Observe(effects []Effect) { f(effects) }

// Option configures an Editor.
type Option func(*Editor)

// WithIDSource overrides the generator used for new box ids.
func WithIDSource(ids IDSource) Option {
	return func(e *Editor) { e.ids = ids }
}

// WithLogger sets the logger. Gesture outcomes are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(e *Editor) { e.observers = append(e.observers, o) }
}

// Editor is a single editing session. It accepts screen-space pointer events and
// keeps the current State. An Editor is not safe for concurrent use.
type Editor struct {
	state     State
	ids       IDSource
	logger    *slog.Logger
	observers []Observer
	// last screen-space pointer position; nil after a leave
	pointer *geometry.Point
}

// New creates an editor for img loaded with boxes.
func New(img ImageRef, boxes []geometry.Box, opts ...Option) *Editor {
	e := &Editor{
		state:  NewState(img, boxes),
		ids:    uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("module", "editor")
	return e
}

// State returns the current snapshot.
func (e *Editor) State() State { return e.state }

// Image returns the image being edited.
func (e *Editor) Image() ImageRef { return e.state.Image }

// Boxes returns the boxes in insertion order.
func (e *Editor) Boxes() []geometry.Box { return e.state.Boxes.Boxes() }

// Selected returns the selected box id, or "" when nothing is selected.
func (e *Editor) Selected() string { return e.state.Selected }

// Preview returns the live draw rectangle, or nil outside a draw gesture.
func (e *Editor) Preview() *geometry.Rect {
	if e.state.Preview == nil {
		return nil
	}
	r := *e.state.Preview
	return &r
}

// Mode returns the mode of the gesture in progress.
func (e *Editor) Mode() Mode { return e.state.Gesture.Mode }

// Zoom returns the current zoom factor.
func (e *Editor) Zoom() float64 { return e.state.View.Zoom }

// Handle applies an event given in screen-space.
func (e *Editor) Handle(kind EventKind, screenX, screenY float64) []Effect {
	if kind == PointerLeave {
		e.pointer = nil
	} else {
		sp := geometry.Pt(screenX, screenY)
		e.pointer = &sp
	}
	p := e.state.View.ToImageSpace(geometry.Pt(screenX, screenY))
	return e.Dispatch(Event{Kind: kind, Point: p})
}

// PointerDown, PointerMove, PointerUp and PointerLeave take screen-space coordinates.
func (e *Editor) PointerDown(x, y float64) []Effect  { return e.Handle(PointerDown, x, y) }
func (e *Editor) PointerMove(x, y float64) []Effect  { return e.Handle(PointerMove, x, y) }
func (e *Editor) PointerUp(x, y float64) []Effect    { return e.Handle(PointerUp, x, y) }
func (e *Editor) PointerLeave(x, y float64) []Effect { return e.Handle(PointerLeave, x, y) }

// Dispatch applies an event already converted to image-space.
func (e *Editor) Dispatch(ev Event) []Effect {
	next, effects := Step(e.state, ev, e.ids)
	e.state = next
	e.emit(effects)
	return effects
}

// Hover returns the cursor for a screen-space pointer position while idle.
func (e *Editor) Hover(screenX, screenY float64) string {
	if e.state.Gesture.Mode != Idle {
		if e.state.Gesture.Mode == MovingBox {
			return "grabbing"
		}
		return hittest.Cursor(hittest.Result{Kind: hittest.Corner})
	}
	p := e.state.View.ToImageSpace(geometry.Pt(screenX, screenY))
	return hittest.Cursor(hittest.Test(p, e.state.Boxes.Boxes()))
}

// Cursor returns the cursor for the last pointer position, or "" when the pointer
// is outside the canvas.
func (e *Editor) Cursor() string {
	if e.pointer == nil {
		return ""
	}
	return e.Hover(e.pointer.X, e.pointer.Y)
}

// DeleteSelected removes the selected box.
func (e *Editor) DeleteSelected() {
	e.apply(DeleteSelected(e.state))
}

// ClearAll removes every box.
func (e *Editor) ClearAll() {
	e.apply(ClearAll(e.state))
}

// SetColor validates color and applies it to the box.
func (e *Editor) SetColor(id, color string) error {
	c, err := geometry.NormalizeColor(color)
	if err != nil {
		return fmt.Errorf("failed to set color: %w", err)
	}
	e.apply(SetColor(e.state, id, c))
	return nil
}

// SetSelectedColor validates color and applies it to the selected box, if any.
func (e *Editor) SetSelectedColor(color string) error {
	c, err := geometry.NormalizeColor(color)
	if err != nil {
		return fmt.Errorf("failed to set color: %w", err)
	}
	e.apply(SetSelectedColor(e.state, c))
	return nil
}

// SetLabel renames a box.
func (e *Editor) SetLabel(id, label string) {
	e.apply(SetLabel(e.state, id, label))
}

// Select selects a box by id; "" clears the selection.
func (e *Editor) Select(id string) {
	e.apply(Select(e.state, id))
}

// ToggleExpanded flips the expanded flag of a box.
func (e *Editor) ToggleExpanded(id string) {
	e.state = ToggleExpanded(e.state, id)
}

// ZoomIn raises the zoom by one step.
func (e *Editor) ZoomIn() { e.state = ZoomIn(e.state) }

// ZoomOut lowers the zoom by one step.
func (e *Editor) ZoomOut() { e.state = ZoomOut(e.state) }

// ResetZoom restores the default zoom.
func (e *Editor) ResetZoom() { e.state = ResetZoom(e.state) }

// SetZoom sets the zoom factor.
func (e *Editor) SetZoom(z float64) { e.state = SetZoom(e.state, z) }

// Load switches the session to another image.
func (e *Editor) Load(img ImageRef, boxes []geometry.Box) {
	e.state = LoadImage(img, boxes)
	e.pointer = nil
	e.logger.Debug("image loaded", "image_id", img.ID, "boxes", len(boxes))
}

func (e *Editor) apply(s State, effects []Effect) {
	e.state = s
	e.emit(effects)
}

func (e *Editor) emit(effects []Effect) {
	if len(effects) == 0 {
		return
	}
	for _, ef := range effects {
		switch ef.Kind {
		case BoxCreated:
			e.logger.Debug("box created", "image_id", e.state.Image.ID, "box_id", ef.BoxID)
		case DrawDiscarded:
			e.logger.Debug("draw discarded", "image_id", e.state.Image.ID)
		case BoxDeleted:
			e.logger.Debug("box deleted", "image_id", e.state.Image.ID, "box_id", ef.BoxID)
		case CollectionCleared:
			e.logger.Debug("annotations cleared", "image_id", e.state.Image.ID)
		}
	}
	for _, o := range e.observers {
		o.Observe(effects)
	}
}
