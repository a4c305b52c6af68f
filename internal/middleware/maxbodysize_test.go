package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acady/wayfarer/backend/internal/middleware"
)

func TestMaxBodySize_RejectsOversizedBody(t *testing.T) {
	handler := middleware.NewMaxBodySizeHandler(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/trips", strings.NewReader(strings.Repeat("x", 64)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestMaxBodySize_PassesSmallBody(t *testing.T) {
	var body []byte
	handler := middleware.NewMaxBodySizeHandler(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		body = b
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/trips", strings.NewReader("ok"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "ok", string(body))
}

func TestMaxBodySize_CapsChunkedBody(t *testing.T) {
	handler := middleware.NewMaxBodySizeHandler(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		assert.Error(t, err)
		w.WriteHeader(http.StatusBadRequest)
	}))

	// No Content-Length: the reader itself must enforce the cap.
	req := httptest.NewRequest(http.MethodPost, "/api/trips", strings.NewReader(strings.Repeat("x", 64)))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
