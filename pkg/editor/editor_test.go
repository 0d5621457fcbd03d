package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

func TestEditorScreenSpaceUnderZoom(t *testing.T) {
	e := New(testImage(), nil, WithIDSource(sequentialIDs()))
	e.SetZoom(2)

	e.PointerDown(20, 20)
	e.PointerMove(120, 220)
	require.NotNil(t, e.Preview())
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 100}, *e.Preview())
	e.PointerUp(120, 220)

	boxes := e.Boxes()
	require.Len(t, boxes, 1)
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 100}, boxes[0].Rect())
	assert.Equal(t, "box-1", e.Selected())
	assert.Nil(t, e.Preview())
}

func TestEditorObserversSeeEffects(t *testing.T) {
	var seen []EffectKind
	obs := ObserverFunc(func(effects []Effect) {
		for _, ef := range effects {
			seen = append(seen, ef.Kind)
		}
	})
	e := New(testImage(), nil, WithIDSource(sequentialIDs()), WithObserver(obs))

	e.PointerDown(10, 10)
	e.PointerUp(80, 80)
	e.DeleteSelected()

	assert.Equal(t, []EffectKind{
		GestureStarted,
		BoxCreated, SelectionChanged, GestureEnded,
		BoxDeleted, SelectionChanged,
	}, seen)
	assert.Empty(t, e.Boxes())
}

func TestEditorSetColorValidates(t *testing.T) {
	e := New(testImage(), []geometry.Box{geometry.CreateBox("a", 0, 0, 40, 40, "a", geometry.DefaultColor)})

	require.NoError(t, e.SetColor("a", "#F87171"))
	assert.Equal(t, "#f87171", e.Boxes()[0].Color)

	assert.Error(t, e.SetColor("a", "purple"))
	assert.Equal(t, "#f87171", e.Boxes()[0].Color)

	require.NoError(t, e.SetSelectedColor("#4ade80"))
	assert.Equal(t, "#f87171", e.Boxes()[0].Color, "no selection, no change")

	e.Select("a")
	require.NoError(t, e.SetSelectedColor("#4ade80"))
	assert.Equal(t, "#4ade80", e.Boxes()[0].Color)
}

func TestEditorHoverCursor(t *testing.T) {
	e := New(testImage(), []geometry.Box{geometry.CreateBox("a", 100, 100, 100, 100, "a", geometry.DefaultColor)})

	assert.Equal(t, "pointer", e.Hover(100, 100))
	assert.Equal(t, "grab", e.Hover(150, 102))
	assert.Equal(t, "crosshair", e.Hover(400, 400))

	e.ZoomIn()
	// (125,125) in screen space is (100,100) in image space at 1.25
	assert.Equal(t, "pointer", e.Hover(125, 125))

	e.PointerDown(187.5, 127.5)
	assert.Equal(t, MovingBox, e.Mode())
	assert.Equal(t, "grabbing", e.Hover(0, 0))
}

func TestEditorCursorFollowsPointer(t *testing.T) {
	e := New(testImage(), []geometry.Box{geometry.CreateBox("a", 100, 100, 100, 100, "a", geometry.DefaultColor)})
	assert.Equal(t, "", e.Cursor())

	e.PointerMove(150, 102)
	assert.Equal(t, "grab", e.Cursor())

	e.ZoomIn()
	// the pointer stays put on screen and now maps above the box
	assert.Equal(t, "crosshair", e.Cursor())

	e.PointerMove(125, 125)
	assert.Equal(t, "pointer", e.Cursor())

	e.PointerLeave(900, 900)
	assert.Equal(t, "", e.Cursor())
}

func TestEditorLoadResetsSession(t *testing.T) {
	e := New(testImage(), []geometry.Box{geometry.CreateBox("a", 0, 0, 40, 40, "a", geometry.DefaultColor)})
	e.Select("a")
	e.ZoomIn()
	e.PointerDown(300, 300)

	other := ImageRef{ID: "other", Name: "other.jpg", Width: 100, Height: 100}
	e.Load(other, nil)

	assert.Equal(t, other, e.Image())
	assert.Empty(t, e.Boxes())
	assert.Equal(t, "", e.Selected())
	assert.Equal(t, Idle, e.Mode())
	assert.Equal(t, 1.0, e.Zoom())
}

func TestEditorLabelAndExpand(t *testing.T) {
	e := New(testImage(), []geometry.Box{geometry.CreateBox("a", 0, 0, 40, 40, "a", geometry.DefaultColor)})

	e.SetLabel("a", "person")
	e.ToggleExpanded("a")

	assert.Equal(t, "person", e.Boxes()[0].Label)
	assert.True(t, e.State().IsExpanded("a"))

	e.ToggleExpanded("a")
	assert.False(t, e.State().IsExpanded("a"))
}
