// Package backend talks to the storefront's remote REST API: the order
// endpoints and the file upload endpoint.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/propagation"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httpclient"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/tracing"
)

// HTTPDoer is the interface for executing HTTP requests.
// *httpclient.CircuitBreakerClient and *httpclient.Client satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

const maxResponseBytes = 4 << 20

// newRequest builds an outgoing request carrying the bearer token (when
// present), the correlation id and the trace context.
func newRequest(ctx context.Context, method, url, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}
	tracing.Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

// do executes req and decodes a 2xx JSON body into dst. Non-2xx answers are
// turned into AppErrors by httpclient.ParseResponseError.
func do(ctx context.Context, doer HTTPDoer, req *http.Request, service string, dst any) error {
	resp, err := doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s service: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, service)
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
