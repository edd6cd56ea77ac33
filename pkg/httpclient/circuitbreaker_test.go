package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      100 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func get(t *testing.T, cb *CircuitBreakerClient, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return cb.Do(context.Background(), req)
}

func TestCircuitBreaker_ClosedState_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-closed"), testLogger())

	resp, err := get(t, cb, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_ServerErrorBodyIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server error while creating order"}`))
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-body"), testLogger())

	resp, err := get(t, cb, server.URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Server error while creating order")
}

func TestCircuitBreaker_TripsOnServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-trip"), testLogger())

	for i := 0; i < 3; i++ {
		resp, err := get(t, cb, server.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := get(t, cb, server.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestCircuitBreaker_4xxNotCountedAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-4xx"), testLogger())

	for i := 0; i < 5; i++ {
		resp, err := get(t, cb, server.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-recover"), testLogger())
	for i := 0; i < 3; i++ {
		resp, err := get(t, cb, server.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	healthy.Store(true)
	time.Sleep(150 * time.Millisecond)

	resp, err := get(t, cb, server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_UnavailableFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-fallback"), testLogger()).
		WithFallback(UnavailableFallback("The store is temporarily unavailable."))

	for i := 0; i < 3; i++ {
		resp, err := get(t, cb, server.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	resp, err := get(t, cb, server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	parsed := ParseResponseError(resp, "order-api")
	assert.Contains(t, parsed.Error(), "The store is temporarily unavailable.")
}

func TestCircuitBreaker_CancelledRequestsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-cancel"), testLogger())

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req, err := http.NewRequest(http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		_, err = cb.Do(ctx, req)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
