package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
)

// RemoteError describes a non-2xx answer from a remote collaborator.
// Message is empty when the body carried no usable message.
type RemoteError struct {
	Service string
	Status  int
	Code    string
	Message string

	kind error
}

// Unwrap exposes the apperrors sentinel matching Status.
func (e *RemoteError) Unwrap() error {
	return e.kind
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Message)
}

// remoteBody accepts the error shapes the storefront API produces:
// {"message": "..."}, {"error": "..."} and {"error": {"code": "...", "message": "..."}}.
type remoteBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and turns it into
// an AppError wrapping a *RemoteError. The remote message, when present,
// becomes the AppError message so it can be shown to the shopper as-is.
// The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	remote := &RemoteError{Service: service, Status: resp.StatusCode}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		remote.Code, remote.Message = extractMessage(bodyBytes)
	}

	return mapRemoteError(remote)
}

func extractMessage(body []byte) (code, message string) {
	var parsed remoteBody
	if json.Unmarshal(body, &parsed) != nil {
		return "", ""
	}

	if len(parsed.Error) > 0 {
		var env envelopeError
		if json.Unmarshal(parsed.Error, &env) == nil && env.Message != "" {
			return env.Code, env.Message
		}
		var plain string
		if json.Unmarshal(parsed.Error, &plain) == nil && strings.TrimSpace(plain) != "" && parsed.Message == "" {
			return "", plain
		}
	}
	return "", strings.TrimSpace(parsed.Message)
}

func mapRemoteError(remote *RemoteError) error {
	message := remote.Message
	if message == "" {
		message = fmt.Sprintf("%s request failed", remote.Service)
	}

	var appErr *apperrors.AppError
	switch status := remote.Status; {
	case status == http.StatusNotFound:
		appErr = apperrors.NotFound(remote.Service, "resource")
		appErr.Message = message
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		appErr = apperrors.InvalidInput(message)
	case status == http.StatusConflict:
		appErr = apperrors.Conflict(message)
	case status == http.StatusUnauthorized:
		appErr = apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		appErr = apperrors.Forbidden(message)
	case status == http.StatusTooManyRequests:
		appErr = apperrors.TooManyRequests(message)
	case status == http.StatusServiceUnavailable:
		appErr = apperrors.ServiceUnavailable(message)
	case status >= 500:
		appErr = apperrors.BadGateway("UPSTREAM_ERROR", message, nil)
	default:
		appErr = &apperrors.AppError{Code: "UPSTREAM_ERROR", Message: message, Status: status}
	}
	if remote.Code != "" {
		appErr.Code = remote.Code
	}
	remote.kind = appErr.Err
	appErr.Err = remote
	return appErr
}

// IsAuthFailure reports whether err is a remote 401 or 403, which the
// storefront API uses for missing, invalid or expired bearer tokens.
func IsAuthFailure(err error) bool {
	var remote *RemoteError
	if !errors.As(err, &remote) {
		return false
	}
	return remote.Status == http.StatusUnauthorized || remote.Status == http.StatusForbidden
}
