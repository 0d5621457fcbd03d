package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSONWithModule(t *testing.T) {
	var buf bytes.Buffer
	l := Module(New(&buf, "info", "json"), "store")

	l.Debug("hidden")
	l.Info("saved", "boxes", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "saved", entry["msg"])
	assert.Equal(t, "store", entry["module"])
	assert.Equal(t, float64(3), entry["boxes"])
}

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	g := NewGormLogger(New(&buf, "debug", "text"), 10*time.Millisecond)
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	g.Trace(ctx, time.Now(), fc, nil)
	assert.Contains(t, buf.String(), "level=DEBUG")
	buf.Reset()

	g.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow query")
	buf.Reset()

	g.Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), "query error")
	buf.Reset()

	g.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "query error")

	assert.Same(t, g, g.LogMode(0))
}
