// Package imageannotator ties the box editor to an image directory and a store.
//
// Boxes are drawn, moved and resized through an editor.Editor; the Annotator
// loads each editor with the boxes persisted for its image, saves them back as a
// replace-all list and builds the export document over every image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"os"
//
//		imageannotator "github.com/menta2k/image-annotator"
//		"github.com/menta2k/image-annotator/internal/imagesource"
//		"github.com/menta2k/image-annotator/internal/store"
//		"github.com/menta2k/image-annotator/pkg/codec"
//	)
//
//	func main() {
//		ctx := context.Background()
//		st, err := store.Open("sqlite", "annotations.db", nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		a := imageannotator.New(imagesource.New("./images", nil, nil), st)
//		images, err := a.Sync(ctx)
//		if err != nil || len(images) == 0 {
//			log.Fatal("no images")
//		}
//
//		ed, err := a.Open(ctx, images[0].ID)
//		if err != nil {
//			log.Fatal(err)
//		}
//		ed.PointerDown(40, 40)
//		ed.PointerMove(160, 120)
//		ed.PointerUp(160, 120)
//
//		if _, err := a.Save(ctx, ed); err != nil {
//			log.Fatal(err)
//		}
//		doc, err := a.Export(ctx)
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = codec.WriteDocument(os.Stdout, doc)
//	}
//
// The package consists of these components:
//
// 1. Geometry (pkg/geometry): boxes, corner markers, resize and translate
// 2. Editor (pkg/editor): the pointer state machine and image navigation
// 3. Codec (pkg/codec): persisted records and the export document
// 4. Detection (pkg/detection): model and saliency pre-labeling backends
// 5. Processing (pkg/processing): decoding, thumbnails and overlay rendering
// 6. Cropper (pkg/cropper): box patches for training classifiers
package imageannotator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/menta2k/image-annotator/internal/imagesource"
	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/internal/metrics"
	"github.com/menta2k/image-annotator/internal/store"
	"github.com/menta2k/image-annotator/pkg/codec"
	"github.com/menta2k/image-annotator/pkg/cropper"
	"github.com/menta2k/image-annotator/pkg/detection"
	"github.com/menta2k/image-annotator/pkg/editor"
	"github.com/menta2k/image-annotator/pkg/processing"
)

// Version of the annotator
const Version = "1.0.0"

// exportConcurrency bounds the number of images whose annotations load in parallel.
const exportConcurrency = 4

// ErrNoBackend is returned by Prelabel when no backend is configured.
var ErrNoBackend = errors.New("no pre-labeling backend configured")

// Option configures an Annotator.
type Option func(*Annotator)

// WithBackend sets the pre-labeling backend.
func WithBackend(b detection.Backend) Option {
	return func(a *Annotator) { a.backend = b }
}

// WithMetrics records saves, pre-labeling and editor effects.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Annotator) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Annotator) { a.logger = l }
}

// WithIDSource overrides box id generation for every editor opened.
func WithIDSource(ids editor.IDSource) Option {
	return func(a *Annotator) { a.ids = ids }
}

// Annotator connects an image source with the annotation store.
type Annotator struct {
	source  *imagesource.Source
	store   *store.Store
	proc    *processing.Processor
	backend detection.Backend
	metrics *metrics.Metrics
	logger  *slog.Logger
	ids     editor.IDSource
}

// New creates an Annotator.
func New(source *imagesource.Source, st *store.Store, opts ...Option) *Annotator {
	a := &Annotator{
		source: source,
		store:  st,
		proc:   processing.NewProcessor(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.Module(a.logger, "annotator")
	return a
}

// Source returns the image source.
func (a *Annotator) Source() *imagesource.Source { return a.source }

// Backend returns the configured pre-labeling backend, or nil.
func (a *Annotator) Backend() detection.Backend { return a.backend }

// Sync scans the image directory, registers every image in the store and returns
// the stored list.
func (a *Annotator) Sync(ctx context.Context) ([]store.ImageSummary, error) {
	found, err := a.source.Scan(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]store.Image, 0, len(found))
	for _, img := range found {
		rows = append(rows, store.Image{
			ID:     img.ID,
			Name:   img.Name,
			Path:   img.Path,
			Width:  img.Width,
			Height: img.Height,
		})
	}
	if err := a.store.SyncImages(ctx, rows); err != nil {
		return nil, err
	}
	a.logger.Info("image directory synced", "dir", a.source.Root(), "images", len(rows))
	return a.Images(ctx)
}

// Images lists the stored images with their annotation counts.
func (a *Annotator) Images(ctx context.Context) ([]store.ImageSummary, error) {
	return a.store.Images(ctx)
}

// Image returns the source image for id.
func (a *Annotator) Image(id string) (imagesource.Image, error) {
	return a.source.Lookup(id)
}

// Records returns the saved records of an image.
func (a *Annotator) Records(ctx context.Context, imageID string) ([]codec.Record, error) {
	return a.store.Annotations(ctx, imageID)
}

// Open returns an editor loaded with the persisted boxes of an image.
func (a *Annotator) Open(ctx context.Context, imageID string, opts ...editor.Option) (*editor.Editor, error) {
	img, err := a.store.Image(ctx, imageID)
	if err != nil {
		return nil, err
	}
	records, err := a.store.Annotations(ctx, imageID)
	if err != nil {
		return nil, err
	}
	ref := editor.ImageRef{ID: img.ID, Name: img.Name, Width: img.Width, Height: img.Height}
	return editor.New(ref, codec.Import(records), a.editorOptions(opts)...), nil
}

func (a *Annotator) editorOptions(extra []editor.Option) []editor.Option {
	opts := []editor.Option{editor.WithLogger(a.logger)}
	if a.ids != nil {
		opts = append(opts, editor.WithIDSource(a.ids))
	}
	if a.metrics != nil {
		opts = append(opts, editor.WithObserver(a.metrics))
	}
	return append(opts, extra...)
}

// Save persists the collection of an editor, replacing what was stored for its image.
func (a *Annotator) Save(ctx context.Context, ed *editor.Editor) ([]codec.Record, error) {
	return a.SaveRecords(ctx, ed.Image().ID, codec.Export(ed.Boxes()))
}

// SaveRecords replaces the stored records of an image.
func (a *Annotator) SaveRecords(ctx context.Context, imageID string, records []codec.Record) ([]codec.Record, error) {
	saved, err := a.store.ReplaceAnnotations(ctx, imageID, records)
	if a.metrics != nil {
		a.metrics.RecordSave(len(saved), err)
	}
	return saved, err
}

// MarkReviewed flags an image as reviewed now.
func (a *Annotator) MarkReviewed(ctx context.Context, imageID string) error {
	return a.store.MarkReviewed(ctx, imageID, time.Now().UTC())
}

// Export builds the export document over every stored image, in name order.
func (a *Annotator) Export(ctx context.Context) (codec.Document, error) {
	images, err := a.store.Images(ctx)
	if err != nil {
		return codec.Document{}, err
	}

	entries := make([]codec.Entry, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, img := range images {
		g.Go(func() error {
			records, err := a.store.Annotations(gctx, img.ID)
			if err != nil {
				return err
			}
			info := codec.ImageInfo{ID: img.ID, Name: img.Name, Width: img.Width, Height: img.Height}
			entries[i] = codec.ExportEntry(info, codec.Import(records))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return codec.Document{}, fmt.Errorf("failed to export annotations: %w", err)
	}
	return codec.BuildDocument(entries...), nil
}

// ImportResult reports what Import stored.
type ImportResult struct {
	// Images holds the ids of the images whose records were replaced.
	Images  []string
	Boxes   int
	// Skipped holds the names of entries matching no known image.
	Skipped []string
}

// Import stores the boxes of an export document. Entries are matched to known
// images by id and then by name, and replace what was stored for that image.
// Entries for unknown images are skipped.
func (a *Annotator) Import(ctx context.Context, doc codec.Document) (ImportResult, error) {
	images, err := a.store.Images(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	byID := make(map[string]string, len(images))
	byName := make(map[string]string, len(images))
	for _, img := range images {
		byID[img.ID] = img.ID
		byName[img.Name] = img.ID
	}

	var res ImportResult
	for _, entry := range doc.Dataset {
		id, ok := byID[entry.Image.ID]
		if !ok {
			id, ok = byName[entry.Image.Name]
		}
		if !ok {
			a.logger.Warn("skipping entry for unknown image", "image_id", entry.Image.ID, "name", entry.Image.Name)
			res.Skipped = append(res.Skipped, entry.Image.Name)
			continue
		}
		saved, err := a.SaveRecords(ctx, id, entry.Records())
		if err != nil {
			return res, fmt.Errorf("failed to import %s: %w", entry.Image.Name, err)
		}
		res.Images = append(res.Images, id)
		res.Boxes += len(saved)
	}
	a.logger.Info("document imported", "images", len(res.Images), "boxes", res.Boxes, "skipped", len(res.Skipped))
	return res, nil
}

// Prelabel asks the backend for suggestions on an image and stores them after the
// existing boxes. The suggestions as stored are returned.
func (a *Annotator) Prelabel(ctx context.Context, imageID string) ([]codec.Record, error) {
	if a.backend == nil {
		return nil, ErrNoBackend
	}
	src, err := a.source.Lookup(imageID)
	if err != nil {
		return nil, err
	}
	raster, err := a.source.Open(src)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	suggestions, err := a.backend.Suggest(ctx, raster)
	if a.metrics != nil {
		a.metrics.RecordPrelabel(a.backend.Name(), len(suggestions), time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("pre-labeling %s with %s failed: %w", src.Name, a.backend.Name(), err)
	}

	saved, err := a.store.AppendAnnotations(ctx, imageID, suggestions)
	if a.metrics != nil {
		a.metrics.RecordSave(len(saved), err)
	}
	if err != nil {
		return nil, err
	}
	a.logger.Info("image pre-labeled", "image", src.Name, "backend", a.backend.Name(), "suggestions", len(saved))
	return saved, nil
}

// Render draws the saved boxes of an image over its raster.
func (a *Annotator) Render(ctx context.Context, imageID string, opts processing.OverlayOptions) (image.Image, error) {
	src, err := a.source.Lookup(imageID)
	if err != nil {
		return nil, err
	}
	records, err := a.store.Annotations(ctx, imageID)
	if err != nil {
		return nil, err
	}
	raster, err := a.source.Open(src)
	if err != nil {
		return nil, err
	}
	return a.proc.RenderOverlay(raster, codec.Import(records), opts), nil
}

// Crops cuts the saved boxes of an image out as patches, in box order.
func (a *Annotator) Crops(ctx context.Context, imageID string, c *cropper.Cropper) ([]cropper.Patch, error) {
	src, err := a.source.Lookup(imageID)
	if err != nil {
		return nil, err
	}
	records, err := a.store.Annotations(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	raster, err := a.source.Open(src)
	if err != nil {
		return nil, err
	}
	return c.CropAll(raster, codec.Import(records)), nil
}

// RenderEditor draws the live state of an editor, including its selection and preview.
func (a *Annotator) RenderEditor(ed *editor.Editor, showLabels bool) (image.Image, error) {
	src, err := a.source.Lookup(ed.Image().ID)
	if err != nil {
		return nil, err
	}
	raster, err := a.source.Open(src)
	if err != nil {
		return nil, err
	}
	return a.proc.RenderOverlay(raster, ed.Boxes(), processing.OverlayOptions{
		Selected:   ed.Selected(),
		Preview:    ed.Preview(),
		ShowLabels: showLabels,
	}), nil
}

// Processor returns the image processor used for encoding.
func (a *Annotator) Processor() *processing.Processor { return a.proc }
