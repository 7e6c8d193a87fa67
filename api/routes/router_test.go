package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/internal/orders"
	"github.com/vitrinehub/storefront-backend/internal/pricing"
	"github.com/vitrinehub/storefront-backend/internal/webhooks"
	"github.com/vitrinehub/storefront-backend/pkg/config"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/pagination"
	"github.com/vitrinehub/storefront-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubOrdersService struct {
	created *models.Order
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, storeID uuid.UUID, input orders.CreateOrderInput) (*models.Order, error) {
	order := &models.Order{
		ID:                   uuid.New(),
		StoreID:              storeID,
		CustomerName:         input.CustomerName,
		Status:               enums.OrderStatusPending,
		StockReserved:        true,
		ReservationExpiresAt: time.Now().Add(24 * time.Hour),
	}
	s.created = order
	return order, nil
}

func (s *stubOrdersService) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersService) ListOrders(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

type stubCanceller struct{}

func (stubCanceller) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderStatusCancelled}, nil
}

type stubPricingService struct{}

func (stubPricingService) GetOrCreateDefault(ctx context.Context, storeID uuid.UUID) (*models.StorePriceModel, error) {
	return &models.StorePriceModel{StoreID: storeID, PriceModel: enums.PriceModelRetailOnly}, nil
}

func (stubPricingService) Update(ctx context.Context, storeID uuid.UUID, input pricing.UpdatePriceModelInput) (*models.StorePriceModel, error) {
	return &models.StorePriceModel{StoreID: storeID, PriceModel: enums.PriceModelRetailOnly}, nil
}

func (stubPricingService) QuoteLine(ctx context.Context, storeID, productID uuid.UUID, qty, cartQty int) (*pricing.Quote, error) {
	return &pricing.Quote{UnitPriceCents: 1000, TierLabel: "Retail"}, nil
}

type stubWebhookFinder struct{}

func (stubWebhookFinder) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderStatusPending}, nil
}

func (stubWebhookFinder) FindByExternalReference(ctx context.Context, reference string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

type stubSettler struct{}

func (stubSettler) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderStatusConfirmed}, nil
}

func (stubSettler) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderStatusCancelled}, nil
}

type stubDedupe struct {
	claims map[string]bool
}

func (s *stubDedupe) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (s *stubDedupe) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.claims == nil {
		s.claims = map[string]bool{}
	}
	if s.claims[key] {
		return false, nil
	}
	s.claims[key] = true
	return true, nil
}

func (s *stubDedupe) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (s *stubDedupe) Del(ctx context.Context, keys ...string) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	processor, err := webhooks.NewPaymentProcessor(webhooks.PaymentProcessorParams{
		Orders:     stubWebhookFinder{},
		Settlement: stubSettler{},
		Dedupe:     &stubDedupe{},
		Logger:     logg,
	})
	if err != nil {
		t.Fatalf("new payment processor: %v", err)
	}
	return NewRouter(RouterParams{
		Config:           &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:           logg,
		DB:               stubPinger{},
		Redis:            stubPinger{},
		Orders:           &stubOrdersService{},
		Settlement:       stubCanceller{},
		Pricing:          stubPricingService{},
		PaymentProcessor: processor,
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestOrderCreateRoute(t *testing.T) {
	router := newTestRouter(t)
	storeID := uuid.New()
	productID := uuid.New()

	body := `{"customer_name":"Maria Souza","items":[{"product_id":"` + productID.String() + `","qty":2}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+storeID.String()+"/orders", strings.NewReader(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestOrderCreateRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t)
	storeID := uuid.New()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+storeID.String()+"/orders", strings.NewReader(`{"items":[]}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestOrderCreateRejectsInvalidStoreID(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/not-a-uuid/orders", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPaymentWebhookRoute(t *testing.T) {
	router := newTestRouter(t)
	orderID := uuid.New().String()

	body := `{"event_id":"evt-1","order_id":"` + orderID + `","status":"approved"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPaymentWebhookRouteAcknowledgesUnknownStatus(t *testing.T) {
	router := newTestRouter(t)
	orderID := uuid.New().String()

	body := `{"event_id":"evt-2","order_id":"` + orderID + `","status":"in_process"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"ignored"`) {
		t.Fatalf("expected ignored outcome, got %s", w.Body.String())
	}
}

func TestPriceModelRoutes(t *testing.T) {
	router := newTestRouter(t)
	storeID := uuid.New()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+storeID.String()+"/price-model", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	quote := `{"product_id":"` + uuid.New().String() + `","qty":3}`
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+storeID.String()+"/price-quote", strings.NewReader(quote)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	// money fields travel as decimal currency strings
	if !strings.Contains(w.Body.String(), `"unit_price":"10.00"`) {
		t.Fatalf("expected decimal unit price, got %s", w.Body.String())
	}
}
