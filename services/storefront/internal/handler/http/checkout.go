package http

import (
	"bufio"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httputil"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
)

// ScreenshotField is the multipart field carrying the payment screenshot.
const ScreenshotField = "screenshot"

// multipartOverhead is allowed on top of the screenshot for the text fields.
const multipartOverhead = 1 << 20

// CheckoutHandler handles checkout submissions and the confirmation page.
type CheckoutHandler struct {
	service  *service.CheckoutService
	maxBytes int64
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, maxScreenshotBytes int64, logger *slog.Logger) *CheckoutHandler {
	if maxScreenshotBytes <= 0 {
		maxScreenshotBytes = service.DefaultMaxScreenshotBytes
	}
	return &CheckoutHandler{service: svc, maxBytes: maxScreenshotBytes, logger: logger}
}

// Submit handles POST /api/v1/checkout. The body is multipart/form-data
// with the customer fields and the screenshot file.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, apperrors.InvalidInput("payment screenshot is too large"), h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.InvalidInput("expected a multipart form"), h.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	input := service.CheckoutInput{
		Name:          r.FormValue("name"),
		Email:         r.FormValue("email"),
		Phone:         r.FormValue("phone"),
		Address:       r.FormValue("address"),
		PaymentMethod: domain.PaymentMethod(r.FormValue("paymentMethod")),
	}

	file, header, err := r.FormFile(ScreenshotField)
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		// The declared content type is not trusted; sniff the first bytes.
		content := bufio.NewReaderSize(file, 512)
		head, _ := content.Peek(512)
		input.Screenshot = &service.Screenshot{
			Filename:    header.Filename,
			ContentType: http.DetectContentType(head),
			Size:        header.Size,
			Content:     content,
		}
	case !errors.Is(err, http.ErrMissingFile):
		httputil.WriteError(w, r, apperrors.InvalidInput("could not read payment screenshot"), h.logger)
		return
	}

	result, err := h.service.Submit(r.Context(), clientID(r), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, result)
}

// Confirmation handles GET /api/v1/orders/confirmation/{ref}. The
// confirmation can be read once; afterwards the browser is sent home.
func (h *CheckoutHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	conf, err := h.service.Confirmation(r.Context(), clientID(r), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			w.Header().Set("Refresh", "3; url="+service.RedirectHome)
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, conf)
}
