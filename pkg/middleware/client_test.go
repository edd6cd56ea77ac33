package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
)

func captureClientID(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	h := ClientScope(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIDFromContext(r.Context())
		assert.Equal(t, seen, logger.ClientIDFromContext(r.Context()))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestClientScope_UsesHeader(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(ClientIDHeader, id)

	rec, seen := captureClientID(t, req)
	assert.Equal(t, id, seen)
	assert.Equal(t, id, rec.Header().Get(ClientIDHeader))
	assert.Empty(t, rec.Result().Cookies())
}

func TestClientScope_UsesCookie(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: ClientIDCookie, Value: id})

	_, seen := captureClientID(t, req)
	assert.Equal(t, id, seen)
}

func TestClientScope_IssuesNewIDWhenMissingOrMalformed(t *testing.T) {
	for _, header := range []string{"", "../../etc/passwd", "cart:other"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		if header != "" {
			req.Header.Set(ClientIDHeader, header)
		}

		rec, seen := captureClientID(t, req)
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.NotEqual(t, header, seen)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, ClientIDCookie, cookies[0].Name)
		assert.Equal(t, seen, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	}
}
