package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

// Document is the downloadable export of a whole dataset.
type Document struct {
	Dataset []Entry `json:"dataset"`
}

// Entry is one image and its annotations.
type Entry struct {
	Image       ImageInfo    `json:"image"`
	Annotations []Annotation `json:"annotations"`
}

// ImageInfo identifies an image and its natural pixel size.
type ImageInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Annotation is an exported box.
type Annotation struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	BBox      BBox       `json:"bbox"`
	Keypoints []Keypoint `json:"keypoints"`
}

// BBox is a rounded box rectangle.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Keypoint is an exported corner. X and Y are rounded; the normalized values are
// computed from the unrounded corner and are not rounded.
type Keypoint struct {
	Position    geometry.CornerPosition `json:"position"`
	X           int                     `json:"x"`
	Y           int                     `json:"y"`
	NormalizedX float64                 `json:"normalized_x"`
	NormalizedY float64                 `json:"normalized_y"`
}

// round rounds half up, matching the browser export format.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func normalize(v float64, dim int) float64 {
	if dim <= 0 {
		return 0
	}
	return v / float64(dim)
}

// ExportAnnotation converts a box for an image of the given size.
func ExportAnnotation(b geometry.Box, width, height int) Annotation {
	a := Annotation{
		ID:    b.ID,
		Label: b.Label,
		BBox: BBox{
			X:      round(b.X),
			Y:      round(b.Y),
			Width:  round(b.Width),
			Height: round(b.Height),
		},
		Keypoints: make([]Keypoint, 0, len(b.Corners)),
	}
	for _, c := range b.Corners {
		a.Keypoints = append(a.Keypoints, Keypoint{
			Position:    c.Position,
			X:           round(c.X),
			Y:           round(c.Y),
			NormalizedX: normalize(c.X, width),
			NormalizedY: normalize(c.Y, height),
		})
	}
	return a
}

// ExportEntry converts the boxes of one image.
func ExportEntry(img ImageInfo, boxes []geometry.Box) Entry {
	e := Entry{Image: img, Annotations: make([]Annotation, 0, len(boxes))}
	for _, b := range boxes {
		e.Annotations = append(e.Annotations, ExportAnnotation(b, img.Width, img.Height))
	}
	return e
}

// BuildDocument assembles entries in order.
func BuildDocument(entries ...Entry) Document {
	dataset := make([]Entry, 0, len(entries))
	return Document{Dataset: append(dataset, entries...)}
}

// WriteDocument encodes doc as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export document: %w", err)
	}
	return nil
}

// ReadDocument decodes a document written by WriteDocument.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode export document: %w", err)
	}
	return doc, nil
}

// Records converts the bounding boxes of an entry back to records. Keypoints are
// ignored since they are derived from the box.
func (e Entry) Records() []Record {
	out := make([]Record, 0, len(e.Annotations))
	for _, a := range e.Annotations {
		out = append(out, Record{
			ID:     a.ID,
			Label:  a.Label,
			X:      float64(a.BBox.X),
			Y:      float64(a.BBox.Y),
			W:      float64(a.BBox.Width),
			H:      float64(a.BBox.Height),
			Source: SourceManual,
		})
	}
	return out
}
