package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/health"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httpclient"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/middleware"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/auth"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/backend"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/confirmation"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/event"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/messaging"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/repository"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

const testClientID = "5b0d7c1e-2f0a-4c55-9a53-8f6f1b1f6a10"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeAPI stands in for the remote storefront API.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"url":"https://cdn.example/proof.png"}`))
	})
	mux.HandleFunc("POST /orders/create", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":{"_id":"o-1","orderNumber":"GO-1001"}}`))
	})
	mux.HandleFunc("GET /orders/user/history", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders":[{"_id":"o-1","orderNumber":"GO-1001","status":"pending"}]}`))
	})
	mux.HandleFunc("GET /orders/{identifier}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("identifier") != "GO-1001" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Order not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"order":{"_id":"o-1","orderNumber":"GO-1001","status":"dispatched"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := newTestLogger()
	api := fakeAPI(t)
	store := storage.NewMemoryStore()
	producer := event.NewProducer(nil, logger)
	client := httpclient.New(httpclient.Config{Timeout: 5 * time.Second, MaxConnsPerHost: 4})

	cart := service.NewCartService(repository.NewCartRepository(store, logger), producer, logger)
	sessions := service.NewSessionService(repository.NewTokenRepository(store), auth.NewDecoder(""), auth.NewSubject(), logger)
	orderClient := backend.NewOrderClient(client, api.URL, logger)
	handoff := messaging.NewHandoff(messaging.HandoffConfig{
		BaseURL: messaging.DefaultBaseURL,
		Phone:   "923001234567",
		Delay:   time.Hour,
	}, nil, logger)
	t.Cleanup(func() { _ = handoff.Close(context.Background()) })

	checkout := service.NewCheckoutService(cart, sessions, orderClient,
		backend.NewUploadClient(client, api.URL, logger),
		confirmation.NewStore(store, time.Minute), handoff, producer,
		service.CheckoutConfig{UploadTimeout: 5 * time.Second, OrderTimeout: 5 * time.Second}, logger)

	return NewRouter(Services{
		Cart:     cart,
		Checkout: checkout,
		Orders:   service.NewOrderService(orderClient, sessions, logger),
		Sessions: sessions,
		Searches: service.NewSearchService(repository.NewSearchRepository(store)),
	}, health.NewHandler(), RouterConfig{CORSAllowedOrigins: []string{"http://localhost:5173"}}, logger)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(middleware.ClientIDHeader, testClientID)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code     string            `json:"code"`
		Message  string            `json:"message"`
		Redirect string            `json:"redirect"`
		Fields   map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"id": "user-1", "exp": time.Now().Add(time.Hour).Unix()}
	if role != "" {
		claims["role"] = role
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func login(t *testing.T, h http.Handler, role string) {
	t.Helper()
	rec := do(t, h, http.MethodPut, "/api/v1/session", `{"token":"`+token(t, role)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func checkoutRequest(t *testing.T, fields map[string]string, screenshot []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if screenshot != nil {
		part, err := mw.CreateFormFile(ScreenshotField, "proof.png")
		require.NoError(t, err)
		_, err = part.Write(screenshot)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.ClientIDHeader, testClientID)
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"name":          "Ayesha Khan",
		"phone":         "03001234567",
		"address":       "House 1, Lahore",
		"paymentMethod": "bank",
	}
}

// --- Cart ---

func TestCartEndpoints(t *testing.T) {
	h := newTestRouter(t)
	add := `{"product":{"_id":"p1","name":"Mug","price":1}}`

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/cart/items", add).Code)
	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", add)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec).Data
	var cart CartResponse
	require.NoError(t, json.Unmarshal(data, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 2.0, rupeeFields(t, data).Total)
	assert.Equal(t, "Rs.2.00", cart.TotalDisplay)

	rec = do(t, h, http.MethodPut, "/api/v1/cart/items/p1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &cart))
	assert.Empty(t, cart.Items)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/cart", "").Code)
}

// rupeeView reads the amounts exactly as the browser sees them.
type rupeeView struct {
	Items []struct {
		ID        string  `json:"id"`
		UnitPrice float64 `json:"unitPrice"`
		Quantity  int     `json:"quantity"`
	} `json:"items"`
	Total float64 `json:"total"`
}

func rupeeFields(t *testing.T, data json.RawMessage) rupeeView {
	t.Helper()
	var v rupeeView
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestAddItem_AmountsInRupees(t *testing.T) {
	h := newTestRouter(t)
	add := `{"product":{"id":"p1","name":"Box","price":100}}`

	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", add)
	require.Equal(t, http.StatusOK, rec.Code)
	first := rupeeFields(t, decode(t, rec).Data)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "p1", first.Items[0].ID)
	assert.Equal(t, 100.0, first.Items[0].UnitPrice)
	assert.Equal(t, 1, first.Items[0].Quantity)
	assert.Equal(t, 100.0, first.Total)

	rec = do(t, h, http.MethodPost, "/api/v1/cart/items", add)
	require.Equal(t, http.StatusOK, rec.Code)
	second := rupeeFields(t, decode(t, rec).Data)
	require.Len(t, second.Items, 1)
	assert.Equal(t, 2, second.Items[0].Quantity)
	assert.Equal(t, 100.0, second.Items[0].UnitPrice)
	assert.Equal(t, 200.0, second.Total)

	rec = do(t, h, http.MethodPost, "/api/v1/cart/items", `{"product":{"_id":"p2","name":"Card","finalPrice":10.5}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	third := rupeeFields(t, decode(t, rec).Data)
	assert.Equal(t, 10.5, third.Items[1].UnitPrice)
	assert.Equal(t, 210.5, third.Total)
}

func TestAddItem_InvalidProduct(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", `{"product":{"name":"no id","price":1}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_RejectsNonJSON(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestClientScope_IssuesIdentifier(t *testing.T) {
	h := newTestRouter(t)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.ClientIDHeader))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.ClientIDCookie)
}

// --- Checkout ---

func TestCheckout_EndToEnd(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/cart/items", `{"product":{"_id":"p1","name":"Mug","finalPrice":1500},"quantity":2}`).Code)
	login(t, h, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest(t, validFields(), pngBytes))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decode(t, rec).Data
	var result service.CheckoutResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "GO-1001", result.Confirmation.OrderNumber)
	assert.Equal(t, domain.Money(300000), result.Confirmation.TotalAmount)
	var shown struct {
		Confirmation struct {
			TotalAmount float64 `json:"totalAmount"`
		} `json:"confirmation"`
	}
	require.NoError(t, json.Unmarshal(data, &shown))
	assert.Equal(t, 3000.0, shown.Confirmation.TotalAmount)
	assert.True(t, strings.HasPrefix(result.HandoffURL, "https://wa.me/923001234567?text="))

	var cart CartResponse
	require.NoError(t, json.Unmarshal(decode(t, do(t, h, http.MethodGet, "/api/v1/cart", "")).Data, &cart))
	assert.Empty(t, cart.Items)

	path := "/api/v1/orders/confirmation/" + result.Confirmation.Reference
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, path, "").Code)

	again := do(t, h, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, again.Code)
	assert.Equal(t, "3; url=/", again.Header().Get("Refresh"))
}

func TestCheckout_RequiresLogin(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/cart/items", `{"product":{"_id":"p1","price":10}}`).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest(t, validFields(), pngBytes))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTH_REQUIRED", env.Error.Code)
	assert.Equal(t, "/login", env.Error.Redirect)
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := newTestRouter(t)
	login(t, h, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest(t, validFields(), pngBytes))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CART_EMPTY", decode(t, rec).Error.Code)
}

func TestCheckout_ValidationErrors(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/cart/items", `{"product":{"_id":"p1","price":10}}`).Code)
	login(t, h, "")
	fields := validFields()
	delete(fields, "phone")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest(t, fields, pngBytes))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "phone")
}

func TestCheckout_RejectsNonImage(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/cart/items", `{"product":{"_id":"p1","price":10}}`).Code)
	login(t, h, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, checkoutRequest(t, validFields(), []byte("%PDF-1.4 not an image")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Orders ---

func TestMyOrders(t *testing.T) {
	h := newTestRouter(t)
	login(t, h, "")

	rec := do(t, h, http.MethodGet, "/api/v1/orders/mine", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), "GO-1001")
}

func TestTrackOrder(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/orders/GO-1001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tracked service.TrackedOrder
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tracked))
	assert.True(t, tracked.Timeline[3].Current)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/orders/GO-404", "").Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	h := newTestRouter(t)
	login(t, h, "")

	rec := do(t, h, http.MethodGet, "/api/v1/admin/orders/stats", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- Session & search ---

func TestSessionLifecycle(t *testing.T) {
	h := newTestRouter(t)
	login(t, h, auth.RoleAdmin)

	rec := do(t, h, http.MethodGet, "/api/v1/session", "")
	var sess service.Session
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sess))
	assert.True(t, sess.Authenticated)
	assert.Equal(t, auth.RoleAdmin, sess.Role)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/session", "").Code)
	rec = do(t, h, http.MethodGet, "/api/v1/session", "")
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sess))
	assert.False(t, sess.Authenticated)
}

func TestRecentSearches(t *testing.T) {
	h := newTestRouter(t)

	do(t, h, http.MethodPost, "/api/v1/search/recent", `{"term":"roses"}`)
	do(t, h, http.MethodPost, "/api/v1/search/recent", `{"term":"mugs"}`)
	rec := do(t, h, http.MethodGet, "/api/v1/search/recent", "")

	assert.JSONEq(t, `{"data":["mugs","roses"]}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/search/recent", "").Code)
	assert.JSONEq(t, `{"data":[]}`, do(t, h, http.MethodGet, "/api/v1/search/recent", "").Body.String())
}

func TestHealthLive(t *testing.T) {
	h := newTestRouter(t)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
