package server

import (
	"context"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"

	imageannotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/pkg/editor"
	"github.com/menta2k/image-annotator/pkg/geometry"
)

// session is an editor held between requests. Editors are not safe for
// concurrent use, so every access goes through mu.
type session struct {
	mu      sync.Mutex
	ed      *editor.Editor
	pending []editor.Effect
}

// Observe collects effects until the next take.
func (s *session) Observe(effects []editor.Effect) {
	s.pending = append(s.pending, effects...)
}

func (s *session) take() []editor.Effect {
	out := s.pending
	s.pending = nil
	if out == nil {
		out = []editor.Effect{}
	}
	return out
}

// sessions caches one editing session per image id and expires idle ones.
type sessions struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func newSessions(c *cache.Cache) *sessions {
	return &sessions{cache: c}
}

// get returns the session of an image, opening a new editor on a miss.
func (ss *sessions) get(ctx context.Context, a *imageannotator.Annotator, imageID string) (*session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if v, ok := ss.cache.Get(imageID); ok {
		sess := v.(*session)
		ss.cache.SetDefault(imageID, sess)
		return sess, nil
	}
	sess := &session{}
	ed, err := a.Open(ctx, imageID, editor.WithObserver(sess))
	if err != nil {
		return nil, err
	}
	sess.ed = ed
	ss.cache.SetDefault(imageID, sess)
	return sess, nil
}

func (ss *sessions) drop(imageID string) {
	ss.mu.Lock()
	ss.cache.Delete(imageID)
	ss.mu.Unlock()
}

type eventsRequest struct {
	Actions []editor.Action `json:"actions"`
}

// sessionView is the state returned after every session request.
type sessionView struct {
	Image    editor.ImageRef `json:"image"`
	Boxes    []geometry.Box  `json:"boxes"`
	Selected string          `json:"selected"`
	Expanded []string        `json:"expanded"`
	Preview  *geometry.Rect  `json:"preview"`
	Mode     editor.Mode     `json:"mode"`
	Cursor   string          `json:"cursor"`
	Zoom     float64         `json:"zoom"`
	Display  geometry.Size   `json:"display"`
	Effects  []editor.Effect `json:"effects"`
}

func viewOf(ed *editor.Editor, effects []editor.Effect) sessionView {
	st := ed.State()
	expanded := make([]string, 0, len(st.Expanded))
	for id := range st.Expanded {
		expanded = append(expanded, id)
	}
	sort.Strings(expanded)
	boxes := ed.Boxes()
	if boxes == nil {
		boxes = []geometry.Box{}
	}
	return sessionView{
		Image:    ed.Image(),
		Boxes:    boxes,
		Selected: ed.Selected(),
		Expanded: expanded,
		Preview:  ed.Preview(),
		Mode:     ed.Mode(),
		Cursor:   ed.Cursor(),
		Zoom:     ed.Zoom(),
		Display:  st.View.DisplaySize(),
		Effects:  effects,
	}
}
