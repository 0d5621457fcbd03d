package imagesource

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-annotator/internal/logging"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 40, 30)
	writePNG(t, filepath.Join(dir, "nested", "a.png"), 10, 20)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0644))

	src := New(dir, []string{"png"}, logging.Discard())
	images, err := src.Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "b.png", images[0].Name)
	assert.Equal(t, 40, images[0].Width)
	assert.Equal(t, 30, images[0].Height)
	assert.Equal(t, "nested/a.png", images[1].Name)
	assert.Equal(t, ImageID("nested/a.png"), images[1].ID)

	got, err := src.Lookup(images[1].ID)
	require.NoError(t, err)
	assert.Equal(t, images[1], got)

	_, err = src.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageIDIsStable(t *testing.T) {
	assert.Equal(t, ImageID("a/b.png"), ImageID("a/b.png"))
	assert.NotEqual(t, ImageID("a/b.png"), ImageID("a/c.png"))
}

func TestOpenAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "wide.png"), 400, 100)

	src := New(dir, []string{"png"}, logging.Discard())
	images, err := src.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)

	full, err := src.Open(images[0])
	require.NoError(t, err)
	assert.Equal(t, 400, full.Bounds().Dx())

	thumb, err := src.Thumbnail(images[0], 80)
	require.NoError(t, err)
	assert.Equal(t, 80, thumb.Bounds().Dx())
	assert.Equal(t, 20, thumb.Bounds().Dy())

	again, err := src.Thumbnail(images[0], 80)
	require.NoError(t, err)
	assert.Same(t, thumb, again)

	assert.Equal(t, "image/png", ContentType(images[0]))
}

func TestScanCancelled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dir, []string{"png"}, nil).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
