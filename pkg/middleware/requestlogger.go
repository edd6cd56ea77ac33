package middleware

import (
	"log/slog"
	"net/http"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
)

// RequestLogger stores a logger enriched with correlation_id, client_id,
// trace_id and span_id in the request context. Mount it after
// RequestLogging, Tracing and ClientScope.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
