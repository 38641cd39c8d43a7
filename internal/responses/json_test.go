package responses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaboard/internal/errs"
)

func TestStatusFor(t *testing.T) {
	cases := map[errs.ErrKind]int{
		errs.ErrKindInvalidInput:     http.StatusBadRequest,
		errs.ErrKindUnauthenticated:  http.StatusUnauthorized,
		errs.ErrKindPermissionDenied: http.StatusForbidden,
		errs.ErrKindNotFound:         http.StatusNotFound,
		errs.ErrKindTimeout:          http.StatusGatewayTimeout,
		errs.ErrKindConnectionFailed: http.StatusServiceUnavailable,
		errs.ErrKindQueryFailed:      http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, StatusFor(errs.New(kind, "x")), kind.String())
	}
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("plain")))
}

func TestError_HidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, errs.Wrap(errs.ErrKindQueryFailed, "insert", errors.New("password=hunter2")), "Failed to save schema")

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "query_failed", body.Error)
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Error(c, errs.New(errs.ErrKindNotFound, "project not found"), "Failed to load schema")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", body.Status)
	assert.Contains(t, body.Error, "project not found")
	assert.Empty(t, w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Error(c, errs.New(errs.ErrKindConnectionFailed, "db down"), "Failed to load schema")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
