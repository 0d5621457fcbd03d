// Package store persists images and their annotation records with gorm.
//
// Saves are replace-all per image: the stored record list for an image is always
// exactly the list of the most recent save, in the same order.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/codec"
)

// DefaultLabel replaces an empty label on save.
const DefaultLabel = "object"

// ErrImageNotFound is returned for operations on an image id that was never synced.
var ErrImageNotFound = errors.New("image not found")

// Image is a known image file.
type Image struct {
	ID         string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"index;not null"`
	Path       string `gorm:"not null"`
	Width      int
	Height     int
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Annotation is one stored box of an image. Box ids are unique per image, so the
// key is (image_id, id). Position keeps the save order.
type Annotation struct {
	ImageID    string  `gorm:"primaryKey;size:64"`
	ID         string  `gorm:"primaryKey;size:64"`
	Position   int     `gorm:"not null"`
	Label      string  `gorm:"not null"`
	X          float64 `gorm:"not null"`
	Y          float64 `gorm:"not null"`
	W          float64 `gorm:"not null"`
	H          float64 `gorm:"not null"`
	Source     string  `gorm:"size:16"`
	Confidence *float64
	UpdatedAt  time.Time
}

// ImageSummary is an image with the number of boxes saved for it.
type ImageSummary struct {
	Image
	AnnotationCount int64
}

// Store wraps a gorm connection.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to a sqlite file or a postgres DSN and migrates the schema.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logging.Module(logger, "store")

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(logger, 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	return New(db, logger)
}

// New uses an existing connection and migrates the schema.
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := db.AutoMigrate(&Image{}, &Annotation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SyncImages upserts image rows. Review state and annotations are kept.
func (s *Store) SyncImages(ctx context.Context, images []Image) error {
	if len(images) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "path", "width", "height", "updated_at"}),
	}).Create(&images).Error
	if err != nil {
		return fmt.Errorf("failed to sync images: %w", err)
	}
	s.logger.Debug("images synced", "count", len(images))
	return nil
}

// Images lists every known image by name with its annotation count.
func (s *Store) Images(ctx context.Context) ([]ImageSummary, error) {
	var images []Image
	if err := s.db.WithContext(ctx).Order("name").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	var counts []struct {
		ImageID string
		N       int64
	}
	err := s.db.WithContext(ctx).Model(&Annotation{}).
		Select("image_id, count(*) as n").
		Group("image_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count annotations: %w", err)
	}
	byImage := make(map[string]int64, len(counts))
	for _, c := range counts {
		byImage[c.ImageID] = c.N
	}

	out := make([]ImageSummary, 0, len(images))
	for _, img := range images {
		out = append(out, ImageSummary{Image: img, AnnotationCount: byImage[img.ID]})
	}
	return out, nil
}

// Image returns one image row.
func (s *Store) Image(ctx context.Context, id string) (Image, error) {
	var img Image
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Image{}, fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	if err != nil {
		return Image{}, fmt.Errorf("failed to load image %s: %w", id, err)
	}
	return img, nil
}

// Annotations returns the saved records of an image in save order.
// An image with no saved boxes yields an empty, non-nil slice.
func (s *Store) Annotations(ctx context.Context, imageID string) ([]codec.Record, error) {
	if _, err := s.Image(ctx, imageID); err != nil {
		return nil, err
	}
	var rows []Annotation
	err := s.db.WithContext(ctx).
		Where("image_id = ?", imageID).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	records := make([]codec.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, toRecord(r))
	}
	return records, nil
}

// ReplaceAnnotations atomically swaps the stored records of an image for records.
// Missing or repeated ids are regenerated, empty labels become DefaultLabel and an
// empty source becomes manual. The records as stored are returned.
func (s *Store) ReplaceAnnotations(ctx context.Context, imageID string, records []codec.Record) ([]codec.Record, error) {
	saved, rows := prepare(imageID, 0, records, make(map[string]bool, len(records)))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireImage(tx, imageID); err != nil {
			return err
		}
		if err := tx.Where("image_id = ?", imageID).Delete(&Annotation{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save annotations for %s: %w", imageID, err)
	}

	s.logger.Info("annotations saved", "image", imageID, "count", len(saved))
	return saved, nil
}

// AppendAnnotations stores records after the boxes already saved for an image,
// in one transaction. Ids already used on the image are regenerated. Only the
// appended records are returned, as stored.
func (s *Store) AppendAnnotations(ctx context.Context, imageID string, records []codec.Record) ([]codec.Record, error) {
	var saved []codec.Record

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireImage(tx, imageID); err != nil {
			return err
		}
		var existing []Annotation
		if err := tx.Select("id", "position").Where("image_id = ?", imageID).Find(&existing).Error; err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing)+len(records))
		next := 0
		for _, a := range existing {
			seen[a.ID] = true
			if a.Position >= next {
				next = a.Position + 1
			}
		}

		var rows []Annotation
		saved, rows = prepare(imageID, next, records, seen)
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to append annotations for %s: %w", imageID, err)
	}

	s.logger.Info("annotations appended", "image", imageID, "count", len(saved))
	return saved, nil
}

// prepare applies the save defaults and numbers the rows from first. seen holds
// the ids already taken on the image and is extended.
func prepare(imageID string, first int, records []codec.Record, seen map[string]bool) ([]codec.Record, []Annotation) {
	saved := make([]codec.Record, 0, len(records))
	rows := make([]Annotation, 0, len(records))
	for i, r := range records {
		if r.ID == "" || seen[r.ID] {
			r.ID = uuid.NewString()
		}
		seen[r.ID] = true
		if strings.TrimSpace(r.Label) == "" {
			r.Label = DefaultLabel
		}
		if r.Source == "" {
			r.Source = codec.SourceManual
		}
		saved = append(saved, r)
		rows = append(rows, fromRecord(imageID, first+i, r))
	}
	return saved, rows
}

func requireImage(tx *gorm.DB, imageID string) error {
	var n int64
	if err := tx.Model(&Image{}).Where("id = ?", imageID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
	}
	return nil
}

// MarkReviewed stamps the review time of an image.
func (s *Store) MarkReviewed(ctx context.Context, imageID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&Image{}).Where("id = ?", imageID).Update("reviewed_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to mark %s reviewed: %w", imageID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
	}
	return nil
}

func toRecord(a Annotation) codec.Record {
	return codec.Record{
		ID:         a.ID,
		Label:      a.Label,
		X:          a.X,
		Y:          a.Y,
		W:          a.W,
		H:          a.H,
		Source:     a.Source,
		Confidence: a.Confidence,
	}
}

func fromRecord(imageID string, pos int, r codec.Record) Annotation {
	return Annotation{
		ID:         r.ID,
		ImageID:    imageID,
		Position:   pos,
		Label:      r.Label,
		X:          r.X,
		Y:          r.Y,
		W:          r.W,
		H:          r.H,
		Source:     r.Source,
		Confidence: r.Confidence,
	}
}
