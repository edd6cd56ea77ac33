package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewEvent(t *testing.T) {
	type cleared struct {
		ClientID string `json:"client_id"`
	}
	event, err := NewEvent("cart.cleared", "client-1", "cart", "storefront", cleared{ClientID: "client-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var decoded cleared
	require.NoError(t, event.UnmarshalData(&decoded))
	assert.Equal(t, "client-1", decoded.ClientID)
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent("cart.updated", "c", "cart", "storefront", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart.updated")
}

func TestEvent_Builders(t *testing.T) {
	e := (&Event{}).WithCorrelationID("corr-1").WithMetadata("order_number", "GO-1001")
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.Equal(t, "GO-1001", e.Metadata["order_number"])
}

func TestProducer_Publish(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	prevTP := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	t.Cleanup(func() { otel.SetTracerProvider(prevTP) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	w := &fakeWriter{}
	p := newProducerWithWriter(w, []string{"localhost:9092"}, discardLogger())

	event, err := NewEvent("order.handoff", "client-9", "order", "storefront", map[string]string{"link": "https://wa.me/923001234567"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-9")

	require.NoError(t, p.Publish(ctx, "storefront.order.handoff", event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "storefront.order.handoff", msg.Topic)
	assert.Equal(t, "client-9", string(msg.Key))
	assert.Equal(t, "order.handoff", header(msg, "event_type"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))
	assert.NotEmpty(t, header(msg, "traceparent"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducerWithWriter(w, nil, discardLogger())

	event, err := NewEvent("cart.updated", "c", "cart", "storefront", struct{}{})
	require.NoError(t, err)

	err = p.Publish(context.Background(), "storefront.cart.updated", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront.cart.updated")
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := newProducerWithWriter(&fakeWriter{}, nil, discardLogger())
	assert.Error(t, p.Ping(context.Background()))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducerWithWriter(w, nil, discardLogger()).Close())
	assert.True(t, w.closed)
}
