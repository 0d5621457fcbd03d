package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	exts := []string{"jpg", ".PNG", "webp"}

	assert.True(t, IsImageFile("a/b/photo.JPG", exts))
	assert.True(t, IsImageFile("x.png", exts))
	assert.False(t, IsImageFile("notes.txt", exts))
	assert.False(t, IsImageFile("noext", exts))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "sub/c.webp", "readme.md", ".hidden/d.png", ".e.png"} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	files, err := ListImageFiles(dir, []string{"jpg", "png", "webp"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.png", "sub/c.webp"}, files)

	_, err = ListImageFiles(filepath.Join(dir, "missing"), []string{"png"})
	assert.Error(t, err)
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "cat_overlay.png"), GenerateOutputFilename("/data/cat.jpg", "out", "", "_overlay", "png"))
	assert.Equal(t, filepath.Join("out", "dog.jpg"), GenerateOutputFilename("dog.jpg", "out", "", "", ""))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename(" a/b:c. "))
}
