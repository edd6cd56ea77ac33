package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const uploadService = "upload"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload is a file to send to the upload endpoint.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// UploadClient calls the remote file upload endpoint.
type UploadClient struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewUploadClient creates an upload client rooted at baseURL.
func NewUploadClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *UploadClient {
	return &UploadClient{http: doer, baseURL: baseURL, logger: logger}
}

// Upload sends the file as multipart field "file" and returns the public URL
// the remote side stored it under.
func (c *UploadClient) Upload(ctx context.Context, token string, f Upload) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Filename)))
	if f.ContentType != "" {
		h.Set("Content-Type", f.ContentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return "", fmt.Errorf("copy upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := newRequest(ctx, http.MethodPost, joinURL(c.baseURL, "/upload"), token, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		URL string `json:"url"`
	}
	if err := do(ctx, c.http, req, uploadService, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}

	c.logger.DebugContext(ctx, "screenshot uploaded", slog.String("url", resp.URL))
	return resp.URL, nil
}
