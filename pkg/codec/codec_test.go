package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

func TestImportExportRecords(t *testing.T) {
	conf := 0.8
	records := []Record{
		{ID: "a", Label: "car", X: 10.5, Y: 20.25, W: 30, H: 40, Source: SourceModel, Confidence: &conf},
		{ID: "b", Label: "dog", X: 0, Y: 0, W: 25, H: 25},
	}

	boxes := Import(records)

	require.Len(t, boxes, 2)
	assert.Equal(t, geometry.Rect{X: 10.5, Y: 20.25, Width: 30, Height: 40}, boxes[0].Rect())
	assert.Equal(t, geometry.DefaultColor, boxes[0].Color)
	assert.True(t, boxes[0].Consistent())
	assert.Equal(t, "dog", boxes[1].Label)

	back := Export(boxes)
	require.Len(t, back, 2)
	assert.Equal(t, Record{ID: "a", Label: "car", X: 10.5, Y: 20.25, W: 30, H: 40, Source: SourceManual}, back[0])
}

func TestExportDocumentKeypoints(t *testing.T) {
	b := geometry.CreateBox("a", 10, 20, 30, 40, "car", geometry.DefaultColor)

	entry := ExportEntry(ImageInfo{ID: "img", Name: "img.png", Width: 100, Height: 200}, []geometry.Box{b})

	require.Len(t, entry.Annotations, 1)
	ann := entry.Annotations[0]
	assert.Equal(t, BBox{X: 10, Y: 20, Width: 30, Height: 40}, ann.BBox)
	require.Len(t, ann.Keypoints, 4)

	br := ann.Keypoints[3]
	assert.Equal(t, geometry.BottomRight, br.Position)
	assert.Equal(t, 40, br.X)
	assert.Equal(t, 60, br.Y)
	assert.InDelta(t, 0.4, br.NormalizedX, 1e-12)
	assert.InDelta(t, 0.3, br.NormalizedY, 1e-12)
}

func TestExportRoundsOnlyIntegers(t *testing.T) {
	b := geometry.CreateBox("a", 10.4, 20.5, 30.6, 40.49, "car", geometry.DefaultColor)

	ann := ExportAnnotation(b, 200, 100)

	assert.Equal(t, BBox{X: 10, Y: 21, Width: 31, Height: 40}, ann.BBox)
	tl := ann.Keypoints[0]
	assert.Equal(t, 10, tl.X)
	assert.Equal(t, 21, tl.Y)
	assert.InDelta(t, 10.4/200, tl.NormalizedX, 1e-12)
	assert.InDelta(t, 20.5/100, tl.NormalizedY, 1e-12)

	// live geometry untouched
	assert.Equal(t, 10.4, b.X)
}

func TestExportZeroSizedImage(t *testing.T) {
	ann := ExportAnnotation(geometry.CreateBox("a", 10, 10, 20, 20, "x", geometry.DefaultColor), 0, 0)

	for _, kp := range ann.Keypoints {
		assert.Zero(t, kp.NormalizedX)
		assert.Zero(t, kp.NormalizedY)
	}
}

func TestWriteDocument(t *testing.T) {
	doc := BuildDocument(
		ExportEntry(ImageInfo{ID: "img", Name: "img.png", Width: 100, Height: 200},
			[]geometry.Box{geometry.CreateBox("a", 10, 20, 30, 40, "car", geometry.DefaultColor)}),
		ExportEntry(ImageInfo{ID: "empty", Name: "empty.png", Width: 10, Height: 10}, nil),
	)

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc))

	assert.JSONEq(t, `{"dataset":[
	  {"image":{"id":"img","name":"img.png","width":100,"height":200},
	   "annotations":[{"id":"a","label":"car","bbox":{"x":10,"y":20,"width":30,"height":40},
	     "keypoints":[
	       {"position":"topLeft","x":10,"y":20,"normalized_x":0.1,"normalized_y":0.1},
	       {"position":"topRight","x":40,"y":20,"normalized_x":0.4,"normalized_y":0.1},
	       {"position":"bottomLeft","x":10,"y":60,"normalized_x":0.1,"normalized_y":0.3},
	       {"position":"bottomRight","x":40,"y":60,"normalized_x":0.4,"normalized_y":0.3}]}]},
	  {"image":{"id":"empty","name":"empty.png","width":10,"height":10},"annotations":[]}]}`, buf.String())

	read, err := ReadDocument(&buf)
	require.NoError(t, err)
	require.Len(t, read.Dataset, 2)
	assert.Equal(t, []Record{{ID: "a", Label: "car", X: 10, Y: 20, W: 30, H: 40, Source: SourceManual}}, read.Dataset[0].Records())
}

func TestEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, BuildDocument()))
	assert.JSONEq(t, `{"dataset":[]}`, buf.String())
}
