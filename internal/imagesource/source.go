// Package imagesource exposes a directory of raster files as annotatable images.
package imagesource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/processing"
)

// namespace seeds the name-based image ids so that the same relative path always
// maps to the same id.
var namespace = uuid.MustParse("6f1d5a62-1c8e-4a55-9a6f-2f0c3b7d9e41")

// DefaultExtensions are scanned when no extensions are configured.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "webp", "bmp", "gif"}

// ErrNotFound is returned for ids that are not in the last scan.
var ErrNotFound = errors.New("image not found")

// Image is a raster file in the source directory.
type Image struct {
	ID      string
	Name    string
	Path    string
	Width   int
	Height  int
	ModTime time.Time
}

// Source scans a directory for images. Dimensions and thumbnails are cached.
type Source struct {
	root       string
	extensions []string
	proc       *processing.Processor
	cache      *cache.Cache
	logger     *slog.Logger

	mu    sync.RWMutex
	index map[string]Image
}

// New creates a source rooted at dir.
func New(dir string, extensions []string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Source{
		root:       dir,
		extensions: extensions,
		proc:       processing.NewProcessor(),
		cache:      cache.New(30*time.Minute, 10*time.Minute),
		logger:     logger.With("module", "imagesource"),
		index:      map[string]Image{},
	}
}

// Root returns the scanned directory.
func (s *Source) Root() string { return s.root }

// ImageID returns the stable id of an image given its slash-separated path
// relative to the source root.
func ImageID(rel string) string {
	return uuid.NewSHA1(namespace, []byte(filepath.ToSlash(rel))).String()
}

// Scan lists the images under the root with their natural sizes. Files that
// cannot be decoded are skipped and logged.
func (s *Source) Scan(ctx context.Context) ([]Image, error) {
	files, err := utils.ListImageFiles(s.root, s.extensions)
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(files))
	index := make(map[string]Image, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := s.describe(rel)
		if err != nil {
			s.logger.Warn("skipping unreadable image", "path", rel, "error", err)
			continue
		}
		images = append(images, img)
		index[img.ID] = img
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	s.logger.Debug("scanned images", "dir", s.root, "count", len(images))
	return images, nil
}

// Lookup returns an image from the last scan.
func (s *Source) Lookup(id string) (Image, error) {
	s.mu.RLock()
	img, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return Image{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return img, nil
}

func (s *Source) describe(rel string) (Image, error) {
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to stat image: %w", err)
	}

	w, h, err := s.dimensions(path, info.ModTime())
	if err != nil {
		return Image{}, err
	}

	return Image{
		ID:      ImageID(rel),
		Name:    rel,
		Path:    path,
		Width:   w,
		Height:  h,
		ModTime: info.ModTime(),
	}, nil
}

type size struct{ w, h int }

func (s *Source) dimensions(path string, mod time.Time) (int, int, error) {
	key := "dim:" + path + "@" + mod.UTC().Format(time.RFC3339Nano)
	if v, ok := s.cache.Get(key); ok {
		sz := v.(size)
		return sz.w, sz.h, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		// formats without a registered config decoder: decode fully
		img, lerr := s.proc.LoadImage(path)
		if lerr != nil {
			return 0, 0, fmt.Errorf("failed to read image dimensions: %w", err)
		}
		cfg.Width, cfg.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}

	s.cache.SetDefault(key, size{cfg.Width, cfg.Height})
	return cfg.Width, cfg.Height, nil
}

// Open decodes the full raster of an image.
func (s *Source) Open(img Image) (image.Image, error) {
	decoded, err := s.proc.LoadImage(img.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", img.Name, err)
	}
	return decoded, nil
}

// Thumbnail returns img scaled to fit within size x size.
func (s *Source) Thumbnail(img Image, size int) (image.Image, error) {
	key := fmt.Sprintf("thumb:%s:%d:%d", img.ID, size, img.ModTime.UnixNano())
	if v, ok := s.cache.Get(key); ok {
		return v.(image.Image), nil
	}

	decoded, err := s.Open(img)
	if err != nil {
		return nil, err
	}
	thumb := s.proc.Thumbnail(decoded, size)
	s.cache.SetDefault(key, thumb)
	return thumb, nil
}

// ContentType guesses the MIME type of the original file.
func ContentType(img Image) string {
	switch strings.ToLower(filepath.Ext(img.Path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}
