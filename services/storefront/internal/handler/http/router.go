package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/health"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/middleware"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
)

// Services groups the storefront services the router exposes.
type Services struct {
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Sessions *service.SessionService
	Searches *service.SearchService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	CORSAllowedOrigins []string
	SecureCookie       bool
	MaxScreenshotBytes int64
	// CheckoutLimiter throttles checkout submissions. Nil disables it.
	CheckoutLimiter *middleware.RateLimiter
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(svcs.Cart, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, cfg.MaxScreenshotBytes, logger)
	orderHandler := NewOrderHandler(svcs.Orders, logger)
	sessionHandler := NewSessionHandler(svcs.Sessions, logger)
	searchHandler := NewSearchHandler(svcs.Searches, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ClientScope(cfg.SecureCookie))

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
			})

			r.Route("/session", func(r chi.Router) {
				r.Get("/", sessionHandler.Current)
				r.Put("/", sessionHandler.Login)
				r.Delete("/", sessionHandler.Logout)
			})

			r.Route("/search/recent", func(r chi.Router) {
				r.Get("/", searchHandler.Recent)
				r.Post("/", searchHandler.Record)
				r.Delete("/", searchHandler.Clear)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/mine", orderHandler.MyOrders)
				r.Get("/confirmation/{ref}", checkoutHandler.Confirmation)
				r.Get("/{identifier}", orderHandler.Track)
			})

			r.Route("/admin/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListAll)
				r.Get("/stats", orderHandler.Stats)
				r.Put("/{id}/status", orderHandler.UpdateStatus)
			})
		})

		r.Group(func(r chi.Router) {
			if cfg.CheckoutLimiter != nil {
				r.Use(cfg.CheckoutLimiter.Handler)
			}
			r.Post("/checkout", checkoutHandler.Submit)
		})
	})

	return r
}
