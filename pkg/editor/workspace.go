package editor

import (
	"errors"
	"fmt"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

// ErrNoImages is returned when navigating a workspace without images.
var ErrNoImages = errors.New("workspace has no images")

// Workspace steps through a sequence of images with one Editor. Each image keeps
// its own collection; switching images resets the gesture, selection and zoom.
type Workspace struct {
	images  []ImageRef
	saved   map[string][]geometry.Box
	current int
	editor  *Editor
}

// NewWorkspace opens the first image. saved holds previously stored boxes per image id.
func NewWorkspace(images []ImageRef, saved map[string][]geometry.Box, opts ...Option) *Workspace {
	w := &Workspace{
		images: append([]ImageRef(nil), images...),
		saved:  make(map[string][]geometry.Box, len(saved)),
	}
	for id, boxes := range saved {
		w.saved[id] = append([]geometry.Box(nil), boxes...)
	}

	var first ImageRef
	if len(w.images) > 0 {
		first = w.images[0]
	}
	w.editor = New(first, w.saved[first.ID], opts...)
	return w
}

// Editor returns the session for the current image.
func (w *Workspace) Editor() *Editor { return w.editor }

// Images returns the image sequence.
func (w *Workspace) Images() []ImageRef { return append([]ImageRef(nil), w.images...) }

// Index returns the position of the current image.
func (w *Workspace) Index() int { return w.current }

// Current returns the current image.
func (w *Workspace) Current() ImageRef { return w.editor.Image() }

// Next moves to the following image. It reports false on the last image.
func (w *Workspace) Next() bool {
	if w.current+1 >= len(w.images) {
		return false
	}
	w.switchTo(w.current + 1)
	return true
}

// Previous moves to the preceding image. It reports false on the first image.
func (w *Workspace) Previous() bool {
	if w.current == 0 || len(w.images) == 0 {
		return false
	}
	w.switchTo(w.current - 1)
	return true
}

// SelectImage jumps to the image with the given id.
func (w *Workspace) SelectImage(id string) error {
	if len(w.images) == 0 {
		return ErrNoImages
	}
	for i, img := range w.images {
		if img.ID == id {
			w.switchTo(i)
			return nil
		}
	}
	return fmt.Errorf("image %q not in workspace", id)
}

// Collections returns the boxes of every image, including unsaved edits to the current one.
func (w *Workspace) Collections() map[string][]geometry.Box {
	w.stash()
	out := make(map[string][]geometry.Box, len(w.saved))
	for id, boxes := range w.saved {
		out[id] = append([]geometry.Box(nil), boxes...)
	}
	return out
}

func (w *Workspace) stash() {
	if len(w.images) == 0 {
		return
	}
	w.saved[w.images[w.current].ID] = w.editor.Boxes()
}

func (w *Workspace) switchTo(i int) {
	w.stash()
	w.current = i
	img := w.images[i]
	w.editor.Load(img, w.saved[img.ID])
}
