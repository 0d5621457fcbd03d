// Package detection proposes boxes for an image before a person reviews them.
package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/codec"
	"github.com/menta2k/image-annotator/pkg/types"
	"github.com/menta2k/image-annotator/pkg/vision"
)

// DefaultMinBoxArea drops suggestions smaller than this many square pixels.
const DefaultMinBoxArea = 100.0

// DefaultLabel is used when a backend gives no label.
const DefaultLabel = "object"

// DefaultPrompt asks a vision model for every labelled object in the image.
const DefaultPrompt = `You are an object detector for a dataset labelling tool.

Return JSON only:
{
  "objects": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ],
  "description": "short neutral sentence"
}

RULES
- Coordinates are normalized to [0,1] (NOT pixels); x,y is the top-left corner.
- One entry per distinct object; boxes should be tight.
- Labels: lowercase singular nouns.
- If nothing is found, return {"objects": [], "description": "no objects"}.
- JSON only. No markdown, no code fences, no comments.`

// Backend suggests annotation records for a decoded image.
type Backend interface {
	Name() string
	Suggest(ctx context.Context, img image.Image) ([]codec.Record, error)
}

// ImageEncoder prepares an image for a model request.
type ImageEncoder interface {
	PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error)
}

// LLMBackend asks a vision model for boxes.
type LLMBackend struct {
	client     client.VisionClient
	encoder    ImageEncoder
	model      string
	prompt     string
	image      types.ModelImageConfig
	minBoxArea float64
}

// NewLLMBackend creates a backend for model served by c.
func NewLLMBackend(c client.VisionClient, enc ImageEncoder, model string, img types.ModelImageConfig, minBoxArea float64) *LLMBackend {
	return &LLMBackend{
		client:     c,
		encoder:    enc,
		model:      model,
		prompt:     DefaultPrompt,
		image:      img,
		minBoxArea: minBoxArea,
	}
}

// WithPrompt replaces the detection prompt.
func (b *LLMBackend) WithPrompt(prompt string) *LLMBackend {
	b.prompt = prompt
	return b
}

// Name identifies the backend.
func (b *LLMBackend) Name() string { return "llm:" + b.model }

// Suggest runs the model on img.
func (b *LLMBackend) Suggest(ctx context.Context, img image.Image) ([]codec.Record, error) {
	encoded, err := b.encoder.PrepareImageForModel(img, b.image.Format, b.image.MaxDim, b.image.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}

	result, err := b.client.DetectObjects(ctx, b.model, b.prompt, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to detect objects: %w", err)
	}

	size := img.Bounds().Size()
	return ToRecords(result.Objects, size.X, size.Y, b.minBoxArea), nil
}

// ToRecords converts normalized detections to pixel records for an image of
// width x height. Boxes are clamped to the image and dropped when their area
// falls below minBoxArea. Records are ordered by descending confidence.
func ToRecords(dets []types.Detection, width, height int, minBoxArea float64) []codec.Record {
	fw, fh := float64(width), float64(height)
	sorted := append([]types.Detection(nil), dets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var out []codec.Record
	for _, d := range sorted {
		x0 := clamp(d.Box.X, 0, 1) * fw
		y0 := clamp(d.Box.Y, 0, 1) * fh
		x1 := clamp(d.Box.X+d.Box.W, 0, 1) * fw
		y1 := clamp(d.Box.Y+d.Box.H, 0, 1) * fh
		w, h := x1-x0, y1-y0
		if w <= 0 || h <= 0 || w*h < minBoxArea {
			continue
		}

		conf := clamp(d.Confidence, 0, 1)
		out = append(out, codec.Record{
			Label:      normalizeLabel(d.Label),
			X:          x0,
			Y:          y0,
			W:          w,
			H:          h,
			Source:     codec.SourceModel,
			Confidence: &conf,
		})
	}
	return out
}

// SaliencyBackend proposes salient regions without a model.
type SaliencyBackend struct {
	detector   *vision.SubjectDetector
	minBoxArea float64
}

// NewSaliencyBackend wraps a subject detector.
func NewSaliencyBackend(d *vision.SubjectDetector, minBoxArea float64) *SaliencyBackend {
	return &SaliencyBackend{detector: d, minBoxArea: minBoxArea}
}

// Name identifies the backend.
func (b *SaliencyBackend) Name() string { return "saliency" }

// Suggest returns one record per salient region.
func (b *SaliencyBackend) Suggest(ctx context.Context, img image.Image) ([]codec.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	regions, err := b.detector.DetectSubjects(img)
	if err != nil {
		return nil, fmt.Errorf("failed to detect subjects: %w", err)
	}

	size := img.Bounds().Size()
	var out []codec.Record
	for _, r := range regions {
		x0 := math.Max(0, float64(r.X))
		y0 := math.Max(0, float64(r.Y))
		x1 := math.Min(float64(size.X), float64(r.X+r.Width))
		y1 := math.Min(float64(size.Y), float64(r.Y+r.Height))
		w, h := x1-x0, y1-y0
		if w <= 0 || h <= 0 || w*h < b.minBoxArea {
			continue
		}
		score := clamp(r.Score, 0, 1)
		out = append(out, codec.Record{
			Label:      DefaultLabel,
			X:          x0,
			Y:          y0,
			W:          w,
			H:          h,
			Source:     codec.SourceModel,
			Confidence: &score,
		})
	}
	return out, nil
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return DefaultLabel
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
