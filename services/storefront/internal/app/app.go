package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/database"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/health"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httpclient"
	pkgkafka "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/kafka"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/middleware"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/tracing"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/auth"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/backend"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/config"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/confirmation"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/event"
	handler "github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/handler/http"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/messaging"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/repository"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
	pgstore "github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage/postgres"
	redisstore "github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage/redis"
)

// purgeInterval is how often expired client state is removed from Postgres.
const purgeInterval = time.Hour

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *goredis.Client
	pool           *pgxpool.Pool
	pgStore        *pgstore.Store
	producer       *pkgkafka.Producer
	handoff        *messaging.Handoff
	limiter        *middleware.RateLimiter
	unsubscribe    func()
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "storefront-service",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   cfg.OTELSampleRate,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.Shutdown()
		return nil, err
	}

	// Kafka is optional; without it events are dropped.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Remote storefront API behind a circuit breaker.
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.HTTPClientTimeout
	clientCfg.MaxRetries = cfg.HTTPMaxRetries
	client := httpclient.New(clientCfg)
	cbCfg := httpclient.DefaultCircuitBreakerConfig("storefront-api")
	cbCfg.Timeout = cfg.CBTimeout
	cbCfg.FailureRatio = cfg.CBFailureRatio
	cbCfg.MinRequests = cfg.CBMinRequests
	apiClient := httpclient.NewCircuitBreakerClient(client, cbCfg, logger).
		WithFallback(httpclient.UnavailableFallback("The store is temporarily unavailable. Please try again shortly."))

	orderClient := backend.NewOrderClient(apiClient, cfg.APIBaseURL, logger)
	uploadClient := backend.NewUploadClient(apiClient, cfg.UploadBaseURL, logger)

	// Session state and its observers.
	subject := auth.NewSubject()
	a.unsubscribe = subject.Subscribe(func(c auth.Change) {
		logger.Info("auth state changed",
			slog.String("client_id", c.ClientID),
			slog.Bool("authenticated", c.Authenticated),
		)
	})
	sessions := service.NewSessionService(repository.NewTokenRepository(store), auth.NewDecoder(cfg.JWTSecret), subject, logger)

	// Build the dependency graph.
	cartService := service.NewCartService(repository.NewCartRepository(store, logger), eventProducer, logger)
	a.handoff = messaging.NewHandoff(messaging.HandoffConfig{
		BaseURL: cfg.WhatsAppBaseURL,
		Phone:   cfg.WhatsAppNumber,
		Delay:   cfg.HandoffDelay(),
	}, eventProducer, logger)
	checkoutService := service.NewCheckoutService(
		cartService,
		sessions,
		orderClient,
		uploadClient,
		confirmation.NewStore(store, cfg.ConfirmationTTLDuration()),
		a.handoff,
		eventProducer,
		service.CheckoutConfig{
			UploadTimeout:      cfg.UploadTimeout,
			OrderTimeout:       cfg.OrderTimeout,
			MaxScreenshotBytes: cfg.MaxScreenshotBytes(),
		},
		logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("store", store.Ping)
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	a.limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger)

	// HTTP router.
	router := handler.NewRouter(handler.Services{
		Cart:     cartService,
		Checkout: checkoutService,
		Orders:   service.NewOrderService(orderClient, sessions, logger),
		Sessions: sessions,
		Searches: service.NewSearchService(repository.NewSearchRepository(store)),
	}, healthHandler, handler.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookie:       cfg.IsProduction(),
		MaxScreenshotBytes: cfg.MaxScreenshotBytes(),
		CheckoutLimiter:    a.limiter,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStore connects the configured client state backend.
func (a *App) openStore(ctx context.Context) (storage.Store, error) {
	ttl := a.cfg.ClientStateTTLDuration()

	switch a.cfg.StoreBackend {
	case config.StoreRedis:
		rdb, err := database.NewRedisClient(ctx, a.cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.Redis().Addr()),
			slog.Int("db", a.cfg.RedisDB),
		)
		return redisstore.NewStore(rdb, ttl), nil

	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, a.cfg.Postgres(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		if err := pgstore.Migrate(ctx, pool, a.logger); err != nil {
			return nil, fmt.Errorf("migrate client state: %w", err)
		}
		a.logger.Info("connected to PostgreSQL", slog.String("host", a.cfg.PostgresHost))
		a.pgStore = pgstore.NewStore(pool, ttl)
		return a.pgStore, nil

	default:
		a.logger.Warn("using in-memory client state; carts are lost on restart")
		return storage.NewMemoryStore(), nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.pgStore != nil && a.cfg.ClientStateTTL > 0 {
		go a.purgeLoop(ctx)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

func (a *App) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.pgStore.Purge(ctx)
			if err != nil {
				a.logger.Warn("purge expired client state failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.Info("purged expired client state", slog.Int64("rows", n))
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Pending handoffs are delivered before the producer goes away.
	if a.handoff != nil {
		if err := a.handoff.Close(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("handoff close: %w", err))
		}
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka producer close: %w", err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	for _, err := range errs {
		a.logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
