package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
)

const (
	// ClientIDHeader carries the browser's device identifier.
	ClientIDHeader = "X-Client-ID"
	// ClientIDCookie is the fallback carrier for browsers that do not set the header.
	ClientIDCookie = "gift_oasis_client"

	clientCookieMaxAge = 365 * 24 * time.Hour
)

type clientIDKeyType struct{}

var clientIDKey clientIDKeyType

// ClientScope resolves the device identifier that namespaces all persisted
// client state (cart, session token, recent searches). A missing or
// malformed identifier is replaced with a fresh one, which is echoed back in
// both the header and a long-lived cookie so the browser keeps it.
func ClientScope(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := readClientID(r)
			if !ok {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientIDCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(ClientIDHeader, id)
			trace.SpanFromContext(r.Context()).SetAttributes(
				AttrClientID.String(id),
				AttrClientIssued.Bool(!ok),
			)

			ctx := context.WithValue(r.Context(), clientIDKey, id)
			ctx = logger.WithClientID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func readClientID(r *http.Request) (string, bool) {
	candidate := r.Header.Get(ClientIDHeader)
	if candidate == "" {
		if c, err := r.Cookie(ClientIDCookie); err == nil {
			candidate = c.Value
		}
	}
	parsed, err := uuid.Parse(candidate)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// ClientIDFromContext returns the identifier set by ClientScope.
func ClientIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey).(string); ok {
		return id
	}
	return ""
}
