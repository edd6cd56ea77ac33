package service

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httpclient"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/tracing"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/validator"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/backend"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/event"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/messaging"
)

// DefaultMaxScreenshotBytes is the largest payment screenshot accepted.
const DefaultMaxScreenshotBytes = 5 << 20

// allowedScreenshotTypes are the image formats the upload endpoint accepts.
var allowedScreenshotTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// OrderCreator submits orders to the remote API.
type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, order domain.OrderRequest) (*domain.CreatedOrder, error)
}

// UploadAPI stores files remotely and returns their public URL.
type UploadAPI interface {
	Upload(ctx context.Context, token string, f backend.Upload) (string, error)
}

// HandoffScheduler defers the messaging handoff of an accepted order.
type HandoffScheduler interface {
	Schedule(ctx context.Context, clientID string, s messaging.OrderSummary) string
}

// ConfirmationStore keeps the one-shot confirmation of an accepted order.
type ConfirmationStore interface {
	Put(ctx context.Context, clientID string, c *domain.Confirmation) error
	Take(ctx context.Context, clientID, ref string) (*domain.Confirmation, bool, error)
}

// Screenshot is the uploaded proof of payment.
type Screenshot struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// CheckoutInput is the checkout form.
type CheckoutInput struct {
	Name          string               `json:"name" form:"name" validate:"required,notblank,max=100"`
	Email         string               `json:"email" form:"email" validate:"omitempty,email,max=254"`
	Phone         string               `json:"phone" form:"phone" validate:"required,phone"`
	Address       string               `json:"address" form:"address" validate:"required,notblank,max=500"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" form:"paymentMethod" validate:"required,oneof=easypaisa bank"`
	Screenshot    *Screenshot          `json:"-" form:"-"`
}

// CheckoutResult is returned for an accepted order.
type CheckoutResult struct {
	Confirmation *domain.Confirmation `json:"confirmation"`
	HandoffURL   string               `json:"handoffUrl"`
}

// CheckoutConfig holds per-step limits. A zero timeout leaves the step
// bounded only by the caller's context and the HTTP client.
type CheckoutConfig struct {
	UploadTimeout      time.Duration
	OrderTimeout       time.Duration
	MaxScreenshotBytes int64
}

// CheckoutService runs a checkout submission: upload the payment screenshot,
// create the order, clear the cart, record the confirmation and schedule
// the messaging handoff. Steps run strictly in that order and a failure
// before the order is accepted leaves the cart untouched.
type CheckoutService struct {
	cart          *CartService
	sessions      *SessionService
	orders        OrderCreator
	uploads       UploadAPI
	confirmations ConfirmationStore
	handoff       HandoffScheduler
	producer      *event.Producer
	sanitizer     *bluemonday.Policy
	cfg           CheckoutConfig
	logger        *slog.Logger
	inflight      *keyedMutex
	now           func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	cart *CartService,
	sessions *SessionService,
	orders OrderCreator,
	uploads UploadAPI,
	confirmations ConfirmationStore,
	handoff HandoffScheduler,
	producer *event.Producer,
	cfg CheckoutConfig,
	logger *slog.Logger,
) *CheckoutService {
	if cfg.MaxScreenshotBytes <= 0 {
		cfg.MaxScreenshotBytes = DefaultMaxScreenshotBytes
	}
	return &CheckoutService{
		cart:          cart,
		sessions:      sessions,
		orders:        orders,
		uploads:       uploads,
		confirmations: confirmations,
		handoff:       handoff,
		producer:      producer,
		sanitizer:     bluemonday.StrictPolicy(),
		cfg:           cfg,
		logger:        logger,
		inflight:      newKeyedMutex(),
		now:           time.Now,
	}
}

// Submit places an order for clientID. A second submission for the same
// client while one is running is rejected with CHECKOUT_IN_PROGRESS.
func (s *CheckoutService) Submit(ctx context.Context, clientID string, input CheckoutInput) (result *CheckoutResult, err error) {
	start := s.now()
	outcome := outcomeError
	defer func() {
		checkoutSubmissions.WithLabelValues(outcome).Inc()
		checkoutDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	unlock, ok := s.inflight.TryLock(clientID)
	if !ok {
		outcome = outcomeInFlight
		return nil, errSubmissionInFlight()
	}
	defer unlock()

	ctx, span := tracing.Start(ctx, "checkout.submit", attribute.String("storefront.client_id", clientID))
	defer func() { tracing.End(span, err) }()
	log := logger.WithContext(ctx, s.logger)

	// Preconditions, checked before any side effect.
	snapshot, err := s.cart.GetCart(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		outcome = outcomeCartEmpty
		return nil, errCartEmpty()
	}

	token, _, err := s.sessions.RequireToken(ctx, clientID)
	if err != nil {
		if isAuthRequired(err) {
			outcome = outcomeAuthRequired
		}
		return nil, err
	}

	customer, err := s.validateInput(&input)
	if err != nil {
		outcome = outcomeInvalid
		return nil, err
	}

	// 1. Upload the screenshot.
	screenshotURL, err := s.uploadScreenshot(ctx, token, input.Screenshot)
	if err != nil {
		outcome = outcomeUploadFailed
		if httpclient.IsAuthFailure(err) {
			outcome = outcomeAuthRequired
			return nil, s.authFailure(ctx, clientID)
		}
		log.Warn("screenshot upload failed", slog.String("error", err.Error()))
		return nil, errStepFailed("UPLOAD_FAILED", domain.ErrUploadFailed, MsgUploadFailed, err)
	}

	// 2. Assemble the order from the snapshot taken above.
	payment := domain.PaymentInfo{Method: input.PaymentMethod, ScreenshotURL: screenshotURL}
	order := domain.NewOrderRequest(snapshot, customer, payment)

	// 3. Create the order.
	created, err := s.createOrder(ctx, token, order)
	if err != nil {
		outcome = outcomeOrderFailed
		if httpclient.IsAuthFailure(err) {
			outcome = outcomeAuthRequired
			return nil, s.authFailure(ctx, clientID)
		}
		log.Warn("order creation failed", slog.String("error", err.Error()))
		return nil, errStepFailed("ORDER_FAILED", domain.ErrOrderFailed, MsgCheckoutFailed, err)
	}

	// The order is accepted; the remaining steps must not be abandoned with
	// the request.
	ctx = context.WithoutCancel(ctx)

	// 4. Take the ordered lines out of the cart.
	if err := s.cart.settleOrdered(ctx, clientID, snapshot); err != nil {
		log.Error("failed to clear cart after accepted order",
			slog.String("order_number", created.OrderNumber),
			slog.String("error", err.Error()),
		)
	}

	// 5. Record the one-shot confirmation.
	conf := &domain.Confirmation{
		Reference:    uuid.NewString(),
		OrderNumber:  created.OrderNumber,
		OrderID:      created.ID,
		TotalAmount:  snapshot.Total(),
		CustomerName: customer.Name,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.confirmations.Put(ctx, clientID, conf); err != nil {
		log.Error("failed to store order confirmation",
			slog.String("order_number", created.OrderNumber),
			slog.String("error", err.Error()),
		)
	}
	if err := s.producer.PublishOrderPlaced(ctx, clientID, conf, input.PaymentMethod, snapshot.ItemCount()); err != nil {
		log.Warn("failed to publish order.placed event", slog.String("error", err.Error()))
	}

	// 6. Schedule the messaging handoff.
	link := s.handoff.Schedule(ctx, clientID, messaging.NewOrderSummary(created.OrderNumber, snapshot, customer, payment))

	outcome = outcomeSuccess
	log.Info("checkout completed",
		slog.String("order_id", created.ID),
		slog.String("order_number", created.OrderNumber),
		slog.Int64("total", int64(conf.TotalAmount)),
		slog.String("payment_method", string(input.PaymentMethod)),
	)
	return &CheckoutResult{Confirmation: conf, HandoffURL: link}, nil
}

// Confirmation returns the confirmation recorded under ref and forgets it.
func (s *CheckoutService) Confirmation(ctx context.Context, clientID, ref string) (*domain.Confirmation, error) {
	conf, ok, err := s.confirmations.Take(ctx, clientID, ref)
	if err != nil {
		return nil, fmt.Errorf("get confirmation: %w", err)
	}
	if !ok {
		notFound := apperrors.NotFound("confirmation", ref).WithRedirect(RedirectHome)
		notFound.Message = MsgConfirmationGone
		return nil, notFound
	}
	return conf, nil
}

// validateInput checks the form and returns the sanitised customer info.
func (s *CheckoutService) validateInput(input *CheckoutInput) (domain.CustomerInfo, error) {
	input.Name = s.clean(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = s.clean(input.Address)

	if err := validator.Validate(input); err != nil {
		return domain.CustomerInfo{}, err
	}

	shot := input.Screenshot
	switch {
	case shot == nil || shot.Content == nil:
		return domain.CustomerInfo{}, apperrors.InvalidInput("payment screenshot is required")
	case !allowedScreenshotTypes[shot.ContentType]:
		return domain.CustomerInfo{}, apperrors.InvalidInput("payment screenshot must be a JPG, PNG or WebP image")
	case shot.Size > s.cfg.MaxScreenshotBytes:
		return domain.CustomerInfo{}, apperrors.InvalidInput(
			fmt.Sprintf("payment screenshot must not exceed %d MB", s.cfg.MaxScreenshotBytes>>20))
	}

	return domain.CustomerInfo{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	}, nil
}

// clean strips markup from free-text fields before they reach the order API
// and the chat message.
func (s *CheckoutService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}

func (s *CheckoutService) uploadScreenshot(ctx context.Context, token string, shot *Screenshot) (_ string, err error) {
	ctx, span := tracing.Start(ctx, "checkout.upload_screenshot")
	defer func() { tracing.End(span, err) }()

	ctx, cancel := stepContext(ctx, s.cfg.UploadTimeout)
	defer cancel()

	return s.uploads.Upload(ctx, token, backend.Upload{
		Filename:    shot.Filename,
		ContentType: shot.ContentType,
		Content:     shot.Content,
	})
}

func (s *CheckoutService) createOrder(ctx context.Context, token string, order domain.OrderRequest) (_ *domain.CreatedOrder, err error) {
	ctx, span := tracing.Start(ctx, "checkout.create_order", attribute.Int("storefront.order.items", len(order.Items)))
	defer func() { tracing.End(span, err) }()

	ctx, cancel := stepContext(ctx, s.cfg.OrderTimeout)
	defer cancel()

	created, err := s.orders.CreateOrder(ctx, token, order)
	if err != nil {
		return nil, err
	}
	if err := created.Validate(); err != nil {
		return nil, err
	}
	return created, nil
}

// authFailure handles a remote rejection of the client's token.
func (s *CheckoutService) authFailure(ctx context.Context, clientID string) error {
	if err := s.sessions.Invalidate(ctx, clientID); err != nil {
		return err
	}
	return errAuthRequired(MsgSessionExpired)
}

func stepContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
