package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_PerClient(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRateLimiter(60, 2, newTestLogger(&buf))
	defer rl.Close()

	h := ClientScope(false)(rl.Handler(okHandler))

	first := uuid.NewString()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set(ClientIDHeader, first)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set(ClientIDHeader, uuid.NewString())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "rate limit exceeded")
}

func TestRateLimiter_RejectionBody(t *testing.T) {
	rl := NewRateLimiter(60, 1, newTestLogger(&bytes.Buffer{}))
	defer rl.Close()
	h := rl.Handler(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestVisitorStore_Cleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newVisitorStore(rate.Limit(1), 1, time.Minute)
	s.nowFunc = func() time.Time { return now }

	s.limiterFor("a")
	now = now.Add(2 * time.Minute)
	s.limiterFor("b")
	s.cleanup()

	assert.Equal(t, 1, s.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded chain", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.7"},
		{"real ip", "", "198.51.100.4", "10.0.0.2:80", "198.51.100.4"},
		{"remote addr", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"garbage forwarded", "not-an-ip", "", "192.0.2.1:5555", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
