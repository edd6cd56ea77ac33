package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httpclient"
	pkgkafka "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/kafka"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/auth"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/event"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/repository"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

const testClient = "client-1"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recordingPublisher captures published events by topic.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// testEnv wires the services over an in-memory store.
type testEnv struct {
	store     *storage.MemoryStore
	publisher *recordingPublisher
	producer  *event.Producer
	subject   *auth.Subject
	cart      *CartService
	sessions  *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	logger := newTestLogger()
	producer := event.NewProducer(pub, logger)
	subject := auth.NewSubject()
	return &testEnv{
		store:     store,
		publisher: pub,
		producer:  producer,
		subject:   subject,
		cart:      NewCartService(repository.NewCartRepository(store, logger), producer, logger),
		sessions:  NewSessionService(repository.NewTokenRepository(store), auth.NewDecoder(""), subject, logger),
	}
}

func signToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{"id": "user-1", "exp": time.Now().Add(ttl).Unix()}
	if role != "" {
		claims["role"] = role
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func (e *testEnv) login(t *testing.T, role string) string {
	t.Helper()
	tok := signToken(t, role, time.Hour)
	require.NoError(t, e.store.Set(context.Background(), testClient, storage.KeyToken, tok))
	return tok
}

func fp(f float64) *float64 { return &f }

func product(id string, rupees float64) domain.Product {
	return domain.Product{MongoID: id, Name: "Gift " + id, Price: fp(rupees)}
}

// remoteError builds the error the backend clients return for a non-2xx answer.
func remoteError(status int, body string) error {
	return httpclient.ParseResponseError(&http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, "order")
}
