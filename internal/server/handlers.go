package server

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/menta2k/image-annotator/pkg/codec"
	"github.com/menta2k/image-annotator/pkg/processing"
)

// maxThumbnailSize caps the size query parameter of the thumbnail route.
const maxThumbnailSize = 1024

// imageItem is one entry of the image list.
type imageItem struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Width           int        `json:"width"`
	Height          int        `json:"height"`
	AnnotationCount int64      `json:"annotation_count"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
}

type annotationsBody struct {
	Annotations []codec.Record `json:"annotations"`
}

type importResponse struct {
	Images  int      `json:"images"`
	Boxes   int      `json:"boxes"`
	Skipped []string `json:"skipped"`
}

// ListImages handles GET /api/images
func (s *Server) ListImages(c echo.Context) error {
	images, err := s.annotator.Images(c.Request().Context())
	if err != nil {
		return err
	}
	items := make([]imageItem, 0, len(images))
	for _, img := range images {
		items = append(items, imageItem{
			ID:              img.ID,
			Name:            img.Name,
			Width:           img.Width,
			Height:          img.Height,
			AnnotationCount: img.AnnotationCount,
			ReviewedAt:      img.ReviewedAt,
		})
	}
	return c.JSON(http.StatusOK, items)
}

// ImageFile handles GET /api/images/:id/file
func (s *Server) ImageFile(c echo.Context) error {
	img, err := s.annotator.Image(c.Param("id"))
	if err != nil {
		return err
	}
	return c.File(img.Path)
}

// Thumbnail handles GET /api/images/:id/thumbnail
func (s *Server) Thumbnail(c echo.Context) error {
	size := s.cfg.Images.ThumbnailSize
	if raw := c.QueryParam("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxThumbnailSize {
			return echo.NewHTTPError(http.StatusBadRequest, "size must be between 1 and "+strconv.Itoa(maxThumbnailSize))
		}
		size = n
	}

	img, err := s.annotator.Image(c.Param("id"))
	if err != nil {
		return err
	}
	thumb, err := s.annotator.Source().Thumbnail(img, size)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.annotator.Processor().Encode(&buf, thumb, "png", 0); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "max-age=300")
	return c.Blob(http.StatusOK, processing.ContentType("png"), buf.Bytes())
}

// GetAnnotations handles GET /api/images/:id/annotations
func (s *Server) GetAnnotations(c echo.Context) error {
	records, err := s.annotator.Records(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, annotationsBody{Annotations: records})
}

// PutAnnotations handles PUT /api/images/:id/annotations. The body replaces
// every stored box of the image.
func (s *Server) PutAnnotations(c echo.Context) error {
	var body annotationsBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid annotations body")
	}
	for i, r := range body.Annotations {
		if err := validateRecord(r); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("annotation %d: %v", i, err))
		}
	}

	id := c.Param("id")
	saved, err := s.annotator.SaveRecords(c.Request().Context(), id, body.Annotations)
	if err != nil {
		return err
	}
	s.sessions.drop(id)
	return c.JSON(http.StatusOK, annotationsBody{Annotations: saved})
}

func validateRecord(r codec.Record) error {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordinates must be finite")
		}
	}
	if r.W < 0 || r.H < 0 {
		return fmt.Errorf("width and height must not be negative")
	}
	return nil
}

// MarkReviewed handles POST /api/images/:id/reviewed
func (s *Server) MarkReviewed(c echo.Context) error {
	if err := s.annotator.MarkReviewed(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Prelabel handles POST /api/images/:id/prelabel
func (s *Server) Prelabel(c echo.Context) error {
	id := c.Param("id")
	added, err := s.annotator.Prelabel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	s.sessions.drop(id)
	return c.JSON(http.StatusOK, annotationsBody{Annotations: added})
}

// Overlay handles GET /api/images/:id/overlay. With ?session=1 the live editing
// session is drawn, including selection and draw preview.
func (s *Server) Overlay(c echo.Context) error {
	format := processing.NormalizeFormat(s.cfg.Render.Format)
	if f := c.QueryParam("format"); f != "" {
		switch f {
		case "png", "jpg", "jpeg", "webp":
			format = processing.NormalizeFormat(f)
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "format must be png, jpg or webp")
		}
	}

	id := c.Param("id")
	var (
		rendered image.Image
		err      error
	)
	if live, _ := strconv.ParseBool(c.QueryParam("session")); live {
		rendered, err = s.renderSession(c, id)
	} else {
		rendered, err = s.annotator.Render(c.Request().Context(), id, processing.OverlayOptions{
			ShowLabels: s.cfg.Render.ShowLabels,
		})
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.annotator.Processor().Encode(&buf, rendered, format, s.cfg.Render.Quality); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, processing.ContentType(format), buf.Bytes())
}

func (s *Server) renderSession(c echo.Context, id string) (image.Image, error) {
	sess, err := s.sessions.get(c.Request().Context(), s.annotator, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.annotator.RenderEditor(sess.ed, s.cfg.Render.ShowLabels)
}

// Export handles GET /api/export
func (s *Server) Export(c echo.Context) error {
	doc, err := s.annotator.Export(c.Request().Context())
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="annotations.json"`)
	res.WriteHeader(http.StatusOK)
	return codec.WriteDocument(res, doc)
}

// Import handles POST /api/import
func (s *Server) Import(c echo.Context) error {
	doc, err := codec.ReadDocument(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for i, entry := range doc.Dataset {
		for _, r := range entry.Records() {
			if err := validateRecord(r); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("entry %d: %v", i, err))
			}
		}
	}

	res, err := s.annotator.Import(c.Request().Context(), doc)
	for _, id := range res.Images {
		s.sessions.drop(id)
	}
	if err != nil {
		return err
	}
	skipped := res.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return c.JSON(http.StatusOK, importResponse{Images: len(res.Images), Boxes: res.Boxes, Skipped: skipped})
}

// GetSession handles GET /api/images/:id/session
func (s *Server) GetSession(c echo.Context) error {
	sess, err := s.sessions.get(c.Request().Context(), s.annotator, c.Param("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.JSON(http.StatusOK, viewOf(sess.ed, sess.take()))
}

// SessionEvents handles POST /api/images/:id/session/events. Actions run in order;
// the first invalid action stops the batch and earlier actions stay applied.
func (s *Server) SessionEvents(c echo.Context) error {
	var req eventsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid events body")
	}

	sess, err := s.sessions.get(c.Request().Context(), s.annotator, c.Param("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.take()
	for i, a := range req.Actions {
		if err := sess.ed.Apply(a); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("action %d: %v", i, err))
		}
	}
	return c.JSON(http.StatusOK, viewOf(sess.ed, sess.take()))
}

// SaveSession handles POST /api/images/:id/session/save
func (s *Server) SaveSession(c echo.Context) error {
	sess, err := s.sessions.get(c.Request().Context(), s.annotator, c.Param("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	saved, err := s.annotator.Save(c.Request().Context(), sess.ed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, annotationsBody{Annotations: saved})
}

// DiscardSession handles DELETE /api/images/:id/session
func (s *Server) DiscardSession(c echo.Context) error {
	s.sessions.drop(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
