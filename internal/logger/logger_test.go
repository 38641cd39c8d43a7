package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	log.Info("schema saved")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "schema saved", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Output: buf})

	log.With().Str("project_id", "p1").Int("version", 3).Logger().Info("saved")

	entry := decode(t, buf)
	assert.Equal(t, "p1", entry["project_id"])
	assert.Equal(t, float64(3), entry["version"])
}

func TestLogger_ErrorWith(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "error", Output: buf})

	log.ErrorWith("save failed", errors.New("tx aborted"), map[string]any{"project_id": "p1"})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "tx aborted", entry["error"])
	assert.Equal(t, "p1", entry["project_id"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{"debug logs debug", "debug", func(l *Logger) { l.Debug("d") }, true},
		{"info skips debug", "info", func(l *Logger) { l.Debug("d") }, false},
		{"warn logs warn", "warn", func(l *Logger) { l.Warn("w") }, true},
		{"error skips info", "error", func(l *Logger) { l.Info("i") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(New(&Config{Level: tt.level, Output: buf}))
			if tt.expected {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLogger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Output: buf})

	FromContext(log.WithContext(context.Background()), nil).Info("from context")
	assert.Equal(t, "from context", decode(t, buf)["message"])

	fallbackBuf := &bytes.Buffer{}
	fallback := New(&Config{Output: fallbackBuf})
	FromContext(context.Background(), fallback).Info("fallback")
	assert.Equal(t, "fallback", decode(t, fallbackBuf)["message"])

	// no logger attached: must not panic
	FromContext(context.Background(), nil).Info("dropped")
}

func TestLogger_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := &bytes.Buffer{}
	log := New(&Config{Output: buf})

	router := gin.New()
	router.Use(log.GinMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		FromContext(c.Request.Context(), nil).Info("handled")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	dec := json.NewDecoder(buf)
	var handled, entry map[string]any
	require.NoError(t, dec.Decode(&handled))
	require.NoError(t, dec.Decode(&entry))

	assert.Equal(t, "handled", handled["message"])
	assert.Equal(t, http.MethodGet, handled["method"])
	assert.Equal(t, "/ping", handled["route"])

	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, float64(http.StatusNoContent), entry["status"])
}
