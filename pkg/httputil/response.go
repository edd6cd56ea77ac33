package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/validator"
)

// Response is the JSON envelope every storefront endpoint answers with.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response. Redirect tells the browser
// where to navigate next (for example "/login" or "/cart").
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Redirect  string            `json:"redirect,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// AttrErrorCode is set on the request span whenever an error envelope is
// written, so traces carry the same code the browser receives.
const AttrErrorCode = attribute.Key("storefront.error_code")

func writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, body *ErrorResponse) {
	trace.SpanFromContext(r.Context()).SetAttributes(AttrErrorCode.String(body.Code))
	WriteJSON(w, status, Response{Error: body})
}

// WriteData wraps v in the Data half of the envelope.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError writes the error envelope for err. AppErrors keep their own
// status, message and redirect hint; validation errors get field details;
// anything else is logged and reported as an internal error.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeErrorEnvelope(w, r, http.StatusBadRequest, &ErrorResponse{
			Code:      "VALIDATION_ERROR",
			Message:   "request validation failed",
			Fields:    valErr.Fields(),
			RequestID: requestID,
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			l.ErrorContext(r.Context(), "request failed",
				slog.String("code", appErr.Code),
				slog.String("error", err.Error()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
		}
		writeErrorEnvelope(w, r, appErr.Status, &ErrorResponse{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Redirect:  appErr.Redirect,
			RequestID: requestID,
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code, message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code, message = "INVALID_INPUT", err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		code, message = "CONFLICT", err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeErrorEnvelope(w, r, status, &ErrorResponse{Code: code, Message: message, RequestID: requestID})
}
