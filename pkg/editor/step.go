package editor

import (
	"fmt"

	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/hittest"
)

// Step applies one image-space pointer event to s and returns the next state with
// the effects it produced. newID is called only when a box is committed.
func Step(s State, ev Event, newID IDSource) (State, []Effect) {
	switch ev.Kind {
	case PointerDown:
		return pointerDown(s, ev.Point)
	case PointerMove:
		return pointerMove(s, ev.Point)
	case PointerUp:
		return finish(s, &ev.Point, newID)
	case PointerLeave:
		return finish(s, nil, newID)
	}
	return s, nil
}

func pointerDown(s State, p geometry.Point) (State, []Effect) {
	if s.Gesture.Mode != Idle {
		return s, nil
	}

	hit := hittest.Test(p, s.Boxes.Boxes())
	var effects []Effect

	switch hit.Kind {
	case hittest.Corner:
		s.Gesture = Gesture{Mode: ResizingCorner, BoxID: hit.BoxID, Corner: hit.Corner, Anchor: p}
		s, effects = selectBox(s, hit.BoxID)
	case hittest.Edge:
		b, _ := s.Boxes.Find(hit.BoxID)
		s.Gesture = Gesture{Mode: MovingBox, BoxID: hit.BoxID, Anchor: p, Offset: p.Sub(b.Position())}
		s, effects = selectBox(s, hit.BoxID)
	default:
		s.Gesture = Gesture{Mode: Drawing, Anchor: p}
		preview := geometry.RectFromPoints(p, p)
		s.Preview = &preview
		s, effects = selectBox(s, "")
	}

	return s, append(effects, Effect{Kind: GestureStarted, BoxID: s.Gesture.BoxID, Mode: s.Gesture.Mode})
}

func pointerMove(s State, p geometry.Point) (State, []Effect) {
	g := s.Gesture
	switch g.Mode {
	case Drawing:
		preview := geometry.RectFromPoints(g.Anchor, p)
		s.Preview = &preview
		return s, nil

	case MovingBox:
		b, ok := s.Boxes.Find(g.BoxID)
		if !ok {
			return s, nil
		}
		target := p.Sub(g.Offset)
		s.Boxes = s.Boxes.Replace(geometry.MoveBoxTo(b, target.X, target.Y))
		return s, []Effect{{Kind: BoxMoved, BoxID: b.ID, Mode: MovingBox}}

	case ResizingCorner:
		b, ok := s.Boxes.Find(g.BoxID)
		if !ok {
			return s, nil
		}
		resized, accepted := geometry.ResizeFromCorner(b, g.Corner, p.X, p.Y)
		if !accepted {
			return s, []Effect{{Kind: ResizeRejected, BoxID: b.ID, Mode: ResizingCorner}}
		}
		s.Boxes = s.Boxes.Replace(resized)
		return s, []Effect{{Kind: BoxResized, BoxID: b.ID, Mode: ResizingCorner}}
	}
	return s, nil
}

// finish ends the gesture. For a draw, the preview is first extended to p when the
// event carries a position (pointer-up); pointer-leave commits the last preview.
func finish(s State, p *geometry.Point, newID IDSource) (State, []Effect) {
	g := s.Gesture
	if g.Mode == Idle {
		return s, nil
	}

	var effects []Effect
	if g.Mode == Drawing {
		preview := s.Preview
		if p != nil {
			r := geometry.RectFromPoints(g.Anchor, *p)
			preview = &r
		}
		s, effects = commitDraw(s, preview, newID)
	}

	s.Gesture = Gesture{}
	s.Preview = nil
	return s, append(effects, Effect{Kind: GestureEnded, BoxID: g.BoxID, Mode: g.Mode})
}

func commitDraw(s State, preview *geometry.Rect, newID IDSource) (State, []Effect) {
	if preview == nil || preview.Width <= MinDrawSize || preview.Height <= MinDrawSize {
		return s, []Effect{{Kind: DrawDiscarded, Mode: Drawing}}
	}

	label := fmt.Sprintf("Box %d", s.Boxes.Len()+1)
	b := geometry.CreateBox(newID(), preview.X, preview.Y, preview.Width, preview.Height, label, geometry.DefaultColor)

	s.Boxes = s.Boxes.Add(b)
	s = s.withExpanded(b.ID, true)
	s, effects := selectBox(s, b.ID)
	return s, append([]Effect{{Kind: BoxCreated, BoxID: b.ID, Mode: Drawing}}, effects...)
}

func selectBox(s State, id string) (State, []Effect) {
	if s.Selected == id {
		return s, nil
	}
	s.Selected = id
	return s, []Effect{{Kind: SelectionChanged, BoxID: id}}
}
