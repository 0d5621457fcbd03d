package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBoxCorners(t *testing.T) {
	b := CreateBox("box-1", 10, 20, 30, 40, "car", DefaultColor)

	assert.Equal(t, Point{X: 10, Y: 20}, b.Corner(TopLeft).Point)
	assert.Equal(t, Point{X: 40, Y: 20}, b.Corner(TopRight).Point)
	assert.Equal(t, Point{X: 10, Y: 60}, b.Corner(BottomLeft).Point)
	assert.Equal(t, Point{X: 40, Y: 60}, b.Corner(BottomRight).Point)

	assert.Equal(t, "box-1-tl", b.Corner(TopLeft).ID)
	assert.Equal(t, "box-1-tr", b.Corner(TopRight).ID)
	assert.Equal(t, "box-1-bl", b.Corner(BottomLeft).ID)
	assert.Equal(t, "box-1-br", b.Corner(BottomRight).ID)
	assert.True(t, b.Consistent())
}

func TestResizeFromCorner(t *testing.T) {
	base := CreateBox("b", 10, 10, 100, 100, "x", DefaultColor)

	tests := []struct {
		name       string
		corner     CornerPosition
		x, y       float64
		want       Rect
		wantAccept bool
	}{
		{"bottom right grows", BottomRight, 200, 150, Rect{X: 10, Y: 10, Width: 190, Height: 140}, true},
		{"top left keeps bottom right", TopLeft, 50, 30, Rect{X: 50, Y: 30, Width: 60, Height: 80}, true},
		{"top right keeps bottom left", TopRight, 80, 60, Rect{X: 10, Y: 60, Width: 70, Height: 50}, true},
		{"bottom left keeps top right", BottomLeft, 0, 40, Rect{X: 0, Y: 10, Width: 110, Height: 30}, true},
		{"exactly minimum is accepted", BottomRight, 30, 30, Rect{X: 10, Y: 10, Width: 20, Height: 20}, true},
		{"top left too narrow", TopLeft, 95, 20, base.Rect(), false},
		{"top left too short", TopLeft, 20, 95, base.Rect(), false},
		{"bottom right inverted", BottomRight, 0, 0, base.Rect(), false},
		{"top right past left edge", TopRight, 5, 50, base.Rect(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResizeFromCorner(base, tt.corner, tt.x, tt.y)
			assert.Equal(t, tt.wantAccept, ok)
			assert.Equal(t, tt.want, got.Rect())
			assert.True(t, got.Consistent())
			assert.Equal(t, base.ID, got.ID)
			assert.Equal(t, base.Label, got.Label)
		})
	}
}

func TestResizeRejectedLeavesBoxIdentical(t *testing.T) {
	base := CreateBox("b", 10, 10, 100, 100, "x", "#f87171")

	got, ok := ResizeFromCorner(base, TopLeft, 100, 100)

	require.False(t, ok)
	assert.Equal(t, base, got)
}

func TestResizeDraggedCornerLandsOnPointer(t *testing.T) {
	base := CreateBox("b", 10, 10, 100, 100, "x", DefaultColor)

	for _, pos := range CornerPositions {
		target := base.Corner(pos).Point
		switch pos {
		case TopLeft:
			target = target.Add(Pt(-15, -5))
		case TopRight:
			target = target.Add(Pt(15, -5))
		case BottomLeft:
			target = target.Add(Pt(-15, 5))
		case BottomRight:
			target = target.Add(Pt(15, 5))
		}

		got, ok := ResizeFromCorner(base, pos, target.X, target.Y)
		require.True(t, ok, pos.String())
		assert.Equal(t, target, got.Corner(pos).Point, pos.String())
		assert.Equal(t, base.Corner(pos.Opposite()).Point, got.Corner(pos.Opposite()).Point, pos.String())
	}
}

func TestTranslateRoundTrip(t *testing.T) {
	base := CreateBox("b", 12.5, 40.25, 64, 32, "x", DefaultColor)

	moved := TranslateBox(base, 17.75, -8.5)
	assert.Equal(t, 30.25, moved.X)
	assert.Equal(t, 31.75, moved.Y)
	assert.True(t, moved.Consistent())

	back := TranslateBox(moved, -17.75, 8.5)
	assert.Equal(t, base, back)
}

func TestMoveBoxTo(t *testing.T) {
	base := CreateBox("b", 1, 2, 30, 40, "x", DefaultColor)

	got := MoveBoxTo(base, 100, 200)

	assert.Equal(t, Rect{X: 100, Y: 200, Width: 30, Height: 40}, got.Rect())
	assert.Equal(t, Point{X: 130, Y: 240}, got.Corner(BottomRight).Point)
}

func TestWithColorKeepsGeometry(t *testing.T) {
	base := CreateBox("b", 1, 2, 30, 40, "x", DefaultColor)

	got := base.WithColor("#4ade80")

	assert.Equal(t, "#4ade80", got.Color)
	assert.Equal(t, base.Corners, got.Corners)
	assert.Equal(t, DefaultColor, base.Color)
}

func TestCornerPositionText(t *testing.T) {
	for _, pos := range CornerPositions {
		parsed, err := ParseCornerPosition(pos.String())
		require.NoError(t, err)
		assert.Equal(t, pos, parsed)
	}

	_, err := ParseCornerPosition("middle")
	assert.Error(t, err)

	data, err := json.Marshal(CreateBox("b", 0, 0, 20, 20, "x", DefaultColor).Corner(BottomLeft))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b-bl","position":"bottomLeft","x":0,"y":20}`, string(data))
}

func TestRectFromPoints(t *testing.T) {
	got := RectFromPoints(Pt(50, 80), Pt(5, 5))
	assert.Equal(t, Rect{X: 5, Y: 5, Width: 45, Height: 75}, got)
	assert.True(t, got.Contains(Pt(5, 80)))
	assert.False(t, got.Contains(Pt(4.9, 10)))
}
