package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/kafka"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
)

// Kafka topic constants for storefront events.
const (
	TopicCartUpdated  = "ecommerce.storefront.cart.updated"
	TopicCartCleared  = "ecommerce.storefront.cart.cleared"
	TopicOrderPlaced  = "ecommerce.storefront.order.placed"
	TopicOrderHandoff = "ecommerce.storefront.order.handoff"
)

// Aggregate type constants.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-service"

// Reasons a cart was cleared.
const (
	ClearReasonManual   = "manual"
	ClearReasonCheckout = "checkout"
)

// CartUpdatedData is the payload for a cart.updated event. Amounts are in paisa.
type CartUpdatedData struct {
	ClientID    string         `json:"client_id"`
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount int64          `json:"total_amount"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	ClientID string `json:"client_id"`
	Reason   string `json:"reason"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	ClientID      string `json:"client_id"`
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	TotalAmount   int64  `json:"total_amount"`
	PaymentMethod string `json:"payment_method"`
	ItemCount     int    `json:"item_count"`
}

// OrderHandoffData is the payload for an order.handoff event.
type OrderHandoffData struct {
	ClientID    string `json:"client_id"`
	OrderNumber string `json:"order_number"`
	Link        string `json:"link"`
}

// Publisher is the part of pkgkafka.Producer the storefront uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events. A Producer with a nil Publisher
// drops every event, which is how Kafka is switched off.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if id := logger.ClientIDFromContext(ctx); id != "" {
		event.WithMetadata("client_id", id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, clientID string, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     int64(item.UnitPrice),
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		ClientID:    clientID,
		Items:       items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: int64(cart.Total()),
	}
	return p.publish(ctx, TopicCartUpdated, clientID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, clientID, reason string) error {
	return p.publish(ctx, TopicCartCleared, clientID, AggregateTypeCart, CartClearedData{
		ClientID: clientID,
		Reason:   reason,
	})
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, clientID string, c *domain.Confirmation, method domain.PaymentMethod, itemCount int) error {
	return p.publish(ctx, TopicOrderPlaced, c.OrderID, AggregateTypeOrder, OrderPlacedData{
		ClientID:      clientID,
		OrderID:       c.OrderID,
		OrderNumber:   c.OrderNumber,
		TotalAmount:   int64(c.TotalAmount),
		PaymentMethod: string(method),
		ItemCount:     itemCount,
	})
}

// PublishOrderHandoff publishes an order.handoff event carrying the deep link.
func (p *Producer) PublishOrderHandoff(ctx context.Context, clientID, orderNumber, link string) error {
	return p.publish(ctx, TopicOrderHandoff, orderNumber, AggregateTypeOrder, OrderHandoffData{
		ClientID:    clientID,
		OrderNumber: orderNumber,
		Link:        link,
	})
}
