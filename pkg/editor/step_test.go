package editor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/hittest"
)

func sequentialIDs() IDSource {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("box-%d", n)
	}
}

func run(s State, ids IDSource, events ...Event) (State, []Effect) {
	var all []Effect
	for _, ev := range events {
		var effects []Effect
		s, effects = Step(s, ev, ids)
		all = append(all, effects...)
	}
	return s, all
}

func kinds(effects []Effect) []EffectKind {
	var out []EffectKind
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

func testImage() ImageRef {
	return ImageRef{ID: "img", Name: "img.png", Width: 640, Height: 480}
}

func TestDrawBelowThresholdCreatesNothing(t *testing.T) {
	s := NewState(testImage(), nil)

	s, effects := run(s, sequentialIDs(), Down(5, 5), Move(8, 8), Up(8, 8))

	assert.Equal(t, 0, s.Boxes.Len())
	assert.Equal(t, Idle, s.Gesture.Mode)
	assert.Nil(t, s.Preview)
	assert.Contains(t, kinds(effects), DrawDiscarded)
	assert.NotContains(t, kinds(effects), BoxCreated)
}

func TestDrawCommitsBox(t *testing.T) {
	s := NewState(testImage(), nil)

	s, effects := run(s, sequentialIDs(), Down(5, 5), Move(30, 40), Move(50, 80), Up(50, 80))

	require.Equal(t, 1, s.Boxes.Len())
	b := s.Boxes.Boxes()[0]
	assert.Equal(t, geometry.Rect{X: 5, Y: 5, Width: 45, Height: 75}, b.Rect())
	assert.Equal(t, "box-1", b.ID)
	assert.Equal(t, "Box 1", b.Label)
	assert.Equal(t, geometry.DefaultColor, b.Color)
	assert.True(t, b.Consistent())
	assert.Equal(t, "box-1", s.Selected)
	assert.True(t, s.IsExpanded("box-1"))
	assert.Contains(t, kinds(effects), BoxCreated)
}

func TestDrawTowardsOriginNormalizesPreview(t *testing.T) {
	s := NewState(testImage(), nil)

	s, _ = run(s, sequentialIDs(), Down(200, 150), Move(120, 100))
	require.NotNil(t, s.Preview)
	assert.Equal(t, geometry.Rect{X: 120, Y: 100, Width: 80, Height: 50}, *s.Preview)
	assert.Equal(t, 0, s.Boxes.Len(), "preview is not part of the collection")

	s, _ = run(s, sequentialIDs(), Up(120, 100))
	require.Equal(t, 1, s.Boxes.Len())
	assert.Equal(t, geometry.Rect{X: 120, Y: 100, Width: 80, Height: 50}, s.Boxes.Boxes()[0].Rect())
}

func TestDrawNeedsBothAxesAboveThreshold(t *testing.T) {
	tests := []struct {
		name  string
		x, y  float64
		boxes int
	}{
		{"exactly ten wide", 110, 200, 0},
		{"exactly ten tall", 200, 110, 0},
		{"thin line", 300, 102, 0},
		{"just over", 110.5, 110.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := run(NewState(testImage(), nil), sequentialIDs(), Down(100, 100), Move(tt.x, tt.y), Up(tt.x, tt.y))
			assert.Equal(t, tt.boxes, s.Boxes.Len())
		})
	}
}

func TestLabelsCountExistingBoxes(t *testing.T) {
	ids := sequentialIDs()
	s := NewState(testImage(), nil)

	s, _ = run(s, ids, Down(10, 10), Up(60, 60))
	s, _ = run(s, ids, Down(200, 200), Up(260, 260))

	boxes := s.Boxes.Boxes()
	require.Len(t, boxes, 2)
	assert.Equal(t, "Box 1", boxes[0].Label)
	assert.Equal(t, "Box 2", boxes[1].Label)
	assert.Equal(t, "box-2", s.Selected)
}

func TestPointerLeaveCommitsDraw(t *testing.T) {
	s := NewState(testImage(), nil)

	s, _ = run(s, sequentialIDs(), Down(10, 10), Move(100, 100), Leave(700, 700))

	require.Equal(t, 1, s.Boxes.Len())
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 90, Height: 90}, s.Boxes.Boxes()[0].Rect())
	assert.Equal(t, Idle, s.Gesture.Mode)
}

func TestPointerLeaveDiscardsClick(t *testing.T) {
	s, effects := run(NewState(testImage(), nil), sequentialIDs(), Down(10, 10), Leave(10, 10))

	assert.Equal(t, 0, s.Boxes.Len())
	assert.Equal(t, Idle, s.Gesture.Mode)
	assert.Contains(t, kinds(effects), DrawDiscarded)
}

func TestPointerLeaveEndsBoxGestures(t *testing.T) {
	tests := []struct {
		name string
		box  geometry.Box
		down geometry.Point
		move geometry.Point
		mode Mode
		want geometry.Rect
	}{
		{
			name: "moving",
			box:  geometry.CreateBox("a", 100, 100, 100, 100, "car", geometry.DefaultColor),
			down: geometry.Pt(150, 103),
			move: geometry.Pt(250, 303),
			mode: MovingBox,
			want: geometry.Rect{X: 200, Y: 300, Width: 100, Height: 100},
		},
		{
			name: "resizing",
			box:  geometry.CreateBox("a", 10, 10, 100, 100, "car", geometry.DefaultColor),
			down: geometry.Pt(110, 110),
			move: geometry.Pt(200, 150),
			mode: ResizingCorner,
			want: geometry.Rect{X: 10, Y: 10, Width: 190, Height: 140},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(testImage(), []geometry.Box{tt.box})
			s, _ = run(s, sequentialIDs(), Down(tt.down.X, tt.down.Y), Move(tt.move.X, tt.move.Y))
			require.Equal(t, tt.mode, s.Gesture.Mode)

			s, effects := Step(s, Leave(5, 600), sequentialIDs())

			assert.Equal(t, Idle, s.Gesture.Mode)
			assert.Nil(t, s.Preview)
			require.Equal(t, 1, s.Boxes.Len())
			got, _ := s.Boxes.Find("a")
			assert.Equal(t, tt.want, got.Rect())
			assert.Equal(t, "a", s.Selected)
			assert.Equal(t, []Effect{{Kind: GestureEnded, BoxID: "a", Mode: tt.mode}}, effects)
		})
	}
}

func TestMoveBoxByEdge(t *testing.T) {
	b := geometry.CreateBox("a", 100, 100, 100, 100, "car", geometry.DefaultColor)
	s := NewState(testImage(), []geometry.Box{b})

	s, _ = run(s, sequentialIDs(), Down(150, 103))
	assert.Equal(t, MovingBox, s.Gesture.Mode)
	assert.Equal(t, geometry.Pt(50, 3), s.Gesture.Offset)
	assert.Equal(t, "a", s.Selected)

	s, _ = run(s, sequentialIDs(), Move(170, 123), Move(250, 303))
	got, _ := s.Boxes.Find("a")
	assert.Equal(t, geometry.Rect{X: 200, Y: 300, Width: 100, Height: 100}, got.Rect())
	assert.True(t, got.Consistent())

	s, _ = run(s, sequentialIDs(), Up(250, 303))
	assert.Equal(t, Idle, s.Gesture.Mode)
	assert.Equal(t, "a", s.Selected)
}

func TestResizeByCorner(t *testing.T) {
	b := geometry.CreateBox("a", 10, 10, 100, 100, "car", geometry.DefaultColor)
	s := NewState(testImage(), []geometry.Box{b})

	s, _ = run(s, sequentialIDs(), Down(110, 110))
	require.Equal(t, ResizingCorner, s.Gesture.Mode)
	assert.Equal(t, geometry.BottomRight, s.Gesture.Corner)

	s, _ = run(s, sequentialIDs(), Move(200, 150))
	got, _ := s.Boxes.Find("a")
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 190, Height: 140}, got.Rect())

	// too small: prior geometry retained, gesture continues
	s, effects := run(s, sequentialIDs(), Move(20, 20))
	assert.Equal(t, []EffectKind{ResizeRejected}, kinds(effects))
	got, _ = s.Boxes.Find("a")
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 190, Height: 140}, got.Rect())
	assert.Equal(t, ResizingCorner, s.Gesture.Mode)

	s, _ = run(s, sequentialIDs(), Move(60, 70), Up(60, 70))
	got, _ = s.Boxes.Find("a")
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 60}, got.Rect())
	assert.Equal(t, Idle, s.Gesture.Mode)
}

func TestPointerDownWhileBusyIsIgnored(t *testing.T) {
	s, _ := run(NewState(testImage(), nil), sequentialIDs(), Down(10, 10), Move(50, 50))

	next, effects := Step(s, Down(300, 300), sequentialIDs())

	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestMoveAndUpWhileIdleAreNoops(t *testing.T) {
	s := NewState(testImage(), []geometry.Box{geometry.CreateBox("a", 0, 0, 50, 50, "a", geometry.DefaultColor)})

	next, effects := run(s, sequentialIDs(), Move(10, 10), Up(10, 10), Leave(10, 10))

	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestDrawOnEmptySpaceClearsSelection(t *testing.T) {
	s := NewState(testImage(), []geometry.Box{geometry.CreateBox("a", 0, 0, 50, 50, "a", geometry.DefaultColor)})
	s, _ = Select(s, "a")

	s, effects := Step(s, Down(300, 300), sequentialIDs())

	assert.Equal(t, "", s.Selected)
	assert.Equal(t, Drawing, s.Gesture.Mode)
	assert.Contains(t, kinds(effects), SelectionChanged)
}

func TestCommandsOnMissingSelection(t *testing.T) {
	s := NewState(testImage(), []geometry.Box{geometry.CreateBox("a", 0, 0, 50, 50, "a", geometry.DefaultColor)})

	next, effects := DeleteSelected(s)
	assert.Equal(t, s, next)
	assert.Empty(t, effects)

	next, effects = SetSelectedColor(s, "#f87171")
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestDeleteSelected(t *testing.T) {
	s := NewState(testImage(), []geometry.Box{
		geometry.CreateBox("a", 0, 0, 50, 50, "a", geometry.DefaultColor),
		geometry.CreateBox("b", 100, 100, 50, 50, "b", geometry.DefaultColor),
	})
	s, _ = Select(s, "a")
	s = ToggleExpanded(s, "a")

	s, effects := DeleteSelected(s)

	assert.Equal(t, 1, s.Boxes.Len())
	_, ok := s.Boxes.Find("a")
	assert.False(t, ok)
	assert.Equal(t, "", s.Selected)
	assert.False(t, s.IsExpanded("a"))
	assert.Equal(t, []EffectKind{BoxDeleted, SelectionChanged}, kinds(effects))
}

func TestClearAllThenHitTest(t *testing.T) {
	ids := sequentialIDs()
	s, _ := run(NewState(testImage(), nil), ids, Down(10, 10), Up(100, 100))
	s, _ = run(s, ids, Down(200, 200), Up(300, 300))
	require.Equal(t, 2, s.Boxes.Len())

	s, _ = ClearAll(s)

	assert.Equal(t, "", s.Selected)
	for _, p := range []geometry.Point{{X: 10, Y: 10}, {X: 100, Y: 50}, {X: 250, Y: 200}, {X: 300, Y: 300}} {
		assert.Equal(t, hittest.None, hittest.Test(p, s.Boxes.Boxes()).Kind)
	}
}

func TestSetColorKeepsGeometry(t *testing.T) {
	b := geometry.CreateBox("a", 5, 6, 70, 80, "a", geometry.DefaultColor)
	s := NewState(testImage(), []geometry.Box{b})

	s, effects := SetColor(s, "a", "#4ade80")

	got, _ := s.Boxes.Find("a")
	assert.Equal(t, "#4ade80", got.Color)
	assert.Equal(t, b.Corners, got.Corners)
	assert.Equal(t, []EffectKind{BoxUpdated}, kinds(effects))
}

func TestStepDoesNotMutateInput(t *testing.T) {
	b := geometry.CreateBox("a", 10, 10, 100, 100, "a", geometry.DefaultColor)
	before := NewState(testImage(), []geometry.Box{b})
	s, _ := Step(before, Down(110, 110), sequentialIDs())

	_, _ = Step(s, Move(300, 300), sequentialIDs())

	got, _ := s.Boxes.Find("a")
	assert.Equal(t, b, got)
}

func TestZoomCommandsLeaveGeometry(t *testing.T) {
	b := geometry.CreateBox("a", 10, 10, 100, 100, "a", geometry.DefaultColor)
	s := NewState(testImage(), []geometry.Box{b})

	s = ZoomIn(ZoomIn(s))
	assert.Equal(t, 1.5, s.View.Zoom)
	s = ZoomOut(s)
	assert.Equal(t, 1.25, s.View.Zoom)
	s = SetZoom(s, 10)
	assert.Equal(t, 3.0, s.View.Zoom)
	s = ResetZoom(s)
	assert.Equal(t, 1.0, s.View.Zoom)

	got, _ := s.Boxes.Find("a")
	assert.Equal(t, b, got)
}

func TestParseEventKind(t *testing.T) {
	for _, k := range []EventKind{PointerDown, PointerMove, PointerUp, PointerLeave} {
		got, err := ParseEventKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseEventKind("click")
	assert.Error(t, err)
}
