package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/kafka"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic: topic, event: e})
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishCartUpdated(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, newTestLogger())
	cart := &domain.Cart{Items: []domain.LineItem{
		{ID: "p1", Name: "Rose", UnitPrice: 1000, Quantity: 2},
		{ID: "p2", Name: "Card", UnitPrice: 250, Quantity: 1},
	}}
	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	ctx = logger.WithClientID(ctx, "client-1")

	require.NoError(t, p.PublishCartUpdated(ctx, "client-1", cart))

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, TopicCartUpdated, msg.topic)
	assert.Equal(t, "client-1", msg.event.AggregateID)
	assert.Equal(t, SourceStorefront, msg.event.Source)
	assert.Equal(t, "corr-9", msg.event.CorrelationID)
	assert.Equal(t, "client-1", msg.event.Metadata["client_id"])

	var data CartUpdatedData
	require.NoError(t, msg.event.UnmarshalData(&data))
	assert.Equal(t, 3, data.ItemCount)
	assert.Equal(t, int64(2250), data.TotalAmount)
	assert.Equal(t, "p1", data.Items[0].ProductID)
}

func TestPublishCartCleared(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, NewProducer(pub, newTestLogger()).PublishCartCleared(context.Background(), "client-1", ClearReasonCheckout))

	var data CartClearedData
	require.NoError(t, pub.msgs[0].event.UnmarshalData(&data))
	assert.Equal(t, CartClearedData{ClientID: "client-1", Reason: "checkout"}, data)
}

func TestPublishOrderEvents(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, newTestLogger())
	conf := &domain.Confirmation{OrderID: "o1", OrderNumber: "GO-1", TotalAmount: 5000}

	require.NoError(t, p.PublishOrderPlaced(context.Background(), "c1", conf, domain.PaymentBank, 2))
	require.NoError(t, p.PublishOrderHandoff(context.Background(), "c1", "GO-1", "https://wa.me/1?text=x"))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, TopicOrderPlaced, pub.msgs[0].topic)
	assert.Equal(t, "o1", pub.msgs[0].event.AggregateID)
	assert.Equal(t, TopicOrderHandoff, pub.msgs[1].topic)

	var handoff OrderHandoffData
	require.NoError(t, pub.msgs[1].event.UnmarshalData(&handoff))
	assert.Equal(t, "https://wa.me/1?text=x", handoff.Link)
}

func TestPublish_Error(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}

	err := NewProducer(pub, newTestLogger()).PublishCartCleared(context.Background(), "c1", ClearReasonManual)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish ecommerce.storefront.cart.cleared event")
}

func TestPublish_DisabledProducerIsNoop(t *testing.T) {
	assert.NoError(t, NewProducer(nil, newTestLogger()).PublishCartCleared(context.Background(), "c1", ClearReasonManual))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishCartUpdated(context.Background(), "c1", domain.NewCart()))
}
