// Package codec converts boxes to and from the persisted record shape and builds
// the export document.
package codec

import (
	"github.com/menta2k/image-annotator/pkg/geometry"
)

// Record sources.
const (
	SourceManual = "manual"
	SourceModel  = "model"
)

// Record is the persisted form of a box: a labelled axis-aligned rectangle in
// image-space. Corners are not stored; they are derived again on import.
type Record struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	W          float64  `json:"w"`
	H          float64  `json:"h"`
	Source     string   `json:"source,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ImportBox builds a Box from a record using the default color.
func ImportBox(r Record) geometry.Box {
	return geometry.CreateBox(r.ID, r.X, r.Y, r.W, r.H, r.Label, geometry.DefaultColor)
}

// Import builds boxes from records, keeping their order.
func Import(records []Record) []geometry.Box {
	boxes := make([]geometry.Box, 0, len(records))
	for _, r := range records {
		boxes = append(boxes, ImportBox(r))
	}
	return boxes
}

// ExportBox reduces a Box to its record. Geometry is not rounded.
func ExportBox(b geometry.Box) Record {
	return Record{
		ID:     b.ID,
		Label:  b.Label,
		X:      b.X,
		Y:      b.Y,
		W:      b.Width,
		H:      b.Height,
		Source: SourceManual,
	}
}

// Export reduces boxes to records for a replace-all save.
func Export(boxes []geometry.Box) []Record {
	records := make([]Record, 0, len(boxes))
	for _, b := range boxes {
		records = append(records, ExportBox(b))
	}
	return records
}
