package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
)

func newTestLogger(w *bytes.Buffer) *slog.Logger {
	return logger.NewWithWriter("storefront-test", "info", w)
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))

	id := rec.Header().Get(CorrelationIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	out := lastLine(t, &buf)
	assert.Equal(t, id, out["correlation_id"])
	assert.Equal(t, float64(http.StatusCreated), out["status"])
	assert.Equal(t, float64(2), out["bytes"])
	assert.Equal(t, "INFO", out["level"])
}

func TestRequestLogging_KeepsIncomingCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corr-1", logger.CorrelationIDFromContext(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "corr-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-1", rec.Header().Get(CorrelationIDHeader))
}

func TestRequestLogging_ServerErrorsLoggedAtError(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))

	assert.Equal(t, "ERROR", lastLine(t, &buf)["level"])
}

func TestRequestLogger_EnrichesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf)

	chain := RequestLogging(base)(ClientScope(false)(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("inside handler")
	}))))

	clientID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(ClientIDHeader, clientID)
	req.Header.Set(CorrelationIDHeader, "corr-77")
	chain.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var inner map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	assert.Equal(t, "inside handler", inner["msg"])
	assert.Equal(t, "corr-77", inner["correlation_id"])
	assert.Equal(t, clientID, inner["client_id"])
}

func TestRecovery_ReturnsJSON500(t *testing.T) {
	var buf bytes.Buffer
	h := Recovery(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil cart")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`, rec.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}
