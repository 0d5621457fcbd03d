// Package metrics provides Prometheus metrics for annotation sessions.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/menta2k/image-annotator/pkg/editor"
)

// Metrics contains all counters and histograms of the annotator.
type Metrics struct {
	registry *prometheus.Registry

	effectsTotal      *prometheus.CounterVec
	gesturesTotal     *prometheus.CounterVec
	savesTotal        *prometheus.CounterVec
	savedBoxes        prometheus.Histogram
	suggestionsTotal  *prometheus.CounterVec
	prelabelDuration  *prometheus.HistogramVec
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates the metrics and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register annotator metrics: %w", err)
	}
	return m, nil
}

// Registry returns the registry the metrics were registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) initMetrics() {
	m.effectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_editor_effects_total",
			Help: "Editor effects partitioned by kind.",
		},
		[]string{"kind"},
	)
	m.gesturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_gestures_total",
			Help: "Pointer gestures started, partitioned by mode.",
		},
		[]string{"mode"},
	)
	m.savesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_saves_total",
			Help: "Annotation saves partitioned by result.",
		},
		[]string{"result"},
	)
	m.savedBoxes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "annotator_saved_boxes",
			Help:    "Number of boxes per successful save.",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)
	m.suggestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_prelabel_suggestions_total",
			Help: "Boxes suggested by pre-labeling backends.",
		},
		[]string{"backend"},
	)
	m.prelabelDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotator_prelabel_duration_seconds",
			Help:    "Time taken by a pre-labeling backend per image.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"backend", "status"},
	)
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotator_http_requests_total",
			Help: "HTTP requests partitioned by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)
	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotator_http_request_duration_seconds",
			Help:    "HTTP request latency partitioned by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
}

// Describe implements the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.effectsTotal.Describe(ch)
	m.gesturesTotal.Describe(ch)
	m.savesTotal.Describe(ch)
	m.savedBoxes.Describe(ch)
	m.suggestionsTotal.Describe(ch)
	m.prelabelDuration.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
	m.httpDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.effectsTotal.Collect(ch)
	m.gesturesTotal.Collect(ch)
	m.savesTotal.Collect(ch)
	m.savedBoxes.Collect(ch)
	m.suggestionsTotal.Collect(ch)
	m.prelabelDuration.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
	m.httpDuration.Collect(ch)
}

// Observe counts editor effects. It makes Metrics an editor.Observer.
func (m *Metrics) Observe(effects []editor.Effect) {
	for _, ef := range effects {
		m.effectsTotal.WithLabelValues(ef.Kind.String()).Inc()
		if ef.Kind == editor.GestureStarted {
			m.gesturesTotal.WithLabelValues(ef.Mode.String()).Inc()
		}
	}
}

// RecordSave counts a save attempt and, on success, its box count.
func (m *Metrics) RecordSave(boxes int, err error) {
	if err != nil {
		m.savesTotal.WithLabelValues("error").Inc()
		return
	}
	m.savesTotal.WithLabelValues("ok").Inc()
	m.savedBoxes.Observe(float64(boxes))
}

// RecordPrelabel records one backend call.
func (m *Metrics) RecordPrelabel(backend string, suggestions int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.prelabelDuration.WithLabelValues(backend, status).Observe(d.Seconds())
	if err == nil {
		m.suggestionsTotal.WithLabelValues(backend).Add(float64(suggestions))
	}
}

// RecordHTTPRequest records a finished request.
func (m *Metrics) RecordHTTPRequest(method, route string, code int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
