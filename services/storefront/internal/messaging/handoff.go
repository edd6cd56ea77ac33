package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
)

var handoffTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_checkout_handoffs_total",
		Help: "Order messaging handoffs, by result",
	},
	[]string{"result"},
)

// Notifier delivers a ready deep link, for example by publishing an event.
type Notifier interface {
	PublishOrderHandoff(ctx context.Context, clientID, orderNumber, link string) error
}

// HandoffConfig configures the scheduler.
type HandoffConfig struct {
	BaseURL string
	Phone   string
	// Delay between order acceptance and the handoff.
	Delay time.Duration
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration
}

// Handoff schedules deep-link deliveries after checkout. Deliveries run on a
// context detached from the request, so an abandoned request does not cancel
// them, and their failures are only logged.
type Handoff struct {
	cfg      HandoffConfig
	notifier Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[*time.Timer]func()
	closed bool
	wg     sync.WaitGroup
}

// NewHandoff creates a scheduler. notifier may be nil, in which case the
// link is only logged.
func NewHandoff(cfg HandoffConfig, notifier Notifier, logger *slog.Logger) *Handoff {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Handoff{
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
		timers:   make(map[*time.Timer]func()),
	}
}

// Link renders the deep link for s without scheduling anything.
func (h *Handoff) Link(s OrderSummary) string {
	return DeepLink(h.cfg.BaseURL, h.cfg.Phone, s.Text())
}

// Schedule arranges delivery of the deep link for s after the configured
// delay and returns the link immediately.
func (h *Handoff) Schedule(ctx context.Context, clientID string, s OrderSummary) string {
	link := h.Link(s)
	detached := context.WithoutCancel(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		handoffTotal.WithLabelValues("dropped").Inc()
		logger.WithContext(ctx, h.logger).Warn("handoff scheduler closed, dropping handoff",
			slog.String("order_number", s.OrderNumber),
		)
		return link
	}

	run := func() { h.deliver(detached, clientID, s.OrderNumber, link) }

	h.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(h.cfg.Delay, func() {
		h.mu.Lock()
		_, owned := h.timers[timer]
		delete(h.timers, timer)
		h.mu.Unlock()
		// Close took over this handoff.
		if !owned {
			return
		}
		defer h.wg.Done()
		run()
	})
	h.timers[timer] = run
	return link
}

func (h *Handoff) deliver(ctx context.Context, clientID, orderNumber, link string) {
	log := logger.WithContext(ctx, h.logger)
	if h.notifier == nil {
		handoffTotal.WithLabelValues("ok").Inc()
		log.Info("order handoff ready", slog.String("order_number", orderNumber))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	if err := h.notifier.PublishOrderHandoff(ctx, clientID, orderNumber, link); err != nil {
		handoffTotal.WithLabelValues("error").Inc()
		log.Warn("order handoff failed",
			slog.String("order_number", orderNumber),
			slog.String("error", err.Error()),
		)
		return
	}
	handoffTotal.WithLabelValues("ok").Inc()
	log.Info("order handoff delivered", slog.String("order_number", orderNumber))
}

// Close stops accepting new handoffs, delivers pending ones without waiting
// for their delay, and waits for all deliveries to finish or for ctx to end.
func (h *Handoff) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	pending := h.timers
	h.timers = make(map[*time.Timer]func())
	h.mu.Unlock()

	for t, run := range pending {
		t.Stop()
		go func() {
			defer h.wg.Done()
			run()
		}()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
