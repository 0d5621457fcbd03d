// Package server exposes the annotator over an echo HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	imageannotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/internal/imagesource"
	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/internal/metrics"
	"github.com/menta2k/image-annotator/internal/store"
)

// Server serves the image list, annotation storage, headless editing sessions,
// overlays and the export document.
type Server struct {
	echo      *echo.Echo
	annotator *imageannotator.Annotator
	metrics   *metrics.Metrics
	cfg       *config.Config
	logger    *slog.Logger
	sessions  *sessions
}

// New builds the server and registers its routes. m may be nil.
func New(a *imageannotator.Annotator, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	ttl := time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		annotator: a,
		metrics:   m,
		cfg:       cfg,
		logger:    logging.Module(logger, "server"),
		sessions:  newSessions(cache.New(ttl, ttl/2)),
	}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	if m != nil {
		e.Use(s.observe)
	}
	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	api := s.echo.Group("/api")

	api.GET("/images", s.ListImages)
	api.GET("/images/:id/file", s.ImageFile)
	api.GET("/images/:id/thumbnail", s.Thumbnail)
	api.GET("/images/:id/annotations", s.GetAnnotations)
	api.PUT("/images/:id/annotations", s.PutAnnotations)
	api.POST("/images/:id/reviewed", s.MarkReviewed)
	api.POST("/images/:id/prelabel", s.Prelabel)
	api.GET("/images/:id/overlay", s.Overlay)

	api.GET("/images/:id/session", s.GetSession)
	api.POST("/images/:id/session/events", s.SessionEvents)
	api.POST("/images/:id/session/save", s.SaveSession)
	api.DELETE("/images/:id/session", s.DiscardSession)

	api.GET("/export", s.Export)
	api.POST("/import", s.Import)

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// observe records every request by its route template.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request().Method, route, c.Response().Status, time.Since(start))
		return nil
	}
}

// handleError maps domain errors to status codes before falling back to echo.
func (s *Server) handleError(err error, c echo.Context) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
	case errors.Is(err, store.ErrImageNotFound), errors.Is(err, imagesource.ErrNotFound):
		he = echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, imageannotator.ErrNoBackend):
		he = echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		he = echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	default:
		s.logger.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		he = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	s.echo.DefaultHTTPErrorHandler(he, c)
}
