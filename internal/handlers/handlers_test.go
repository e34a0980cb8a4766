package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/campus-queue/internal/basket"
	"github.com/Lixing-Zhang/campus-queue/internal/config"
	"github.com/Lixing-Zhang/campus-queue/internal/middleware"
	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
	"github.com/Lixing-Zhang/campus-queue/internal/service"
	"github.com/Lixing-Zhang/campus-queue/pkg/logger"
)

const testUser = "student-1"

// failingOrderRepository rejects every write while fail is set
type failingOrderRepository struct {
	*repository.InMemoryOrderRepository
	fail bool
}

func (r *failingOrderRepository) Save(ctx context.Context, order models.Order) error {
	if r.fail {
		return errors.New("connection refused")
	}
	return r.InMemoryOrderRepository.Save(ctx, order)
}

type testServer struct {
	handler http.Handler
	orders  *failingOrderRepository
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()

	log := logger.New("error")
	catalog := repository.NewInMemoryCatalogRepository()
	orders := &failingOrderRepository{InMemoryOrderRepository: repository.NewInMemoryOrderRepository()}

	baskets, err := service.NewBasketService(catalog, 100, func() *basket.Basket {
		return basket.New(basket.WithEstimator(catalog))
	}, log)
	if err != nil {
		t.Fatalf("NewBasketService() unexpected error = %v", err)
	}

	retry := service.RetryConfig{MaxTries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxElapsedTime: time.Second}

	h := Handlers{
		Health:  NewHealthHandler(log, checks),
		Catalog: NewCatalogHandler(service.NewCatalogService(catalog), log),
		Basket:  NewBasketHandler(baskets, log),
		Order:   NewOrderHandler(service.NewOrderService(baskets, orders, retry, log), log),
		Profile: NewProfileHandler(service.NewProfileService(repository.NewInMemoryProfileRepository(), catalog), log),
	}

	return &testServer{
		handler: NewRouter(h, config.AuthConfig{APIKeys: []string{"apitest"}}, log),
		orders:  orders,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func asUser(id string) map[string]string {
	return map[string]string{middleware.UserIDHeader: id}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
}

func TestHealth_DependencyDown(t *testing.T) {
	s := newTestServer(t, map[string]HealthCheck{
		"orders": func(ctx context.Context) error { return errors.New("down") },
		"cache":  func(ctx context.Context) error { return nil },
	})

	w := s.do(t, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Dependencies["orders"] != "unavailable" || resp.Dependencies["cache"] != "ok" {
		t.Errorf("unexpected dependencies: %v", resp.Dependencies)
	}
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"list vendors", "/api/vendors", http.StatusOK},
		{"get vendor", "/api/vendors/1", http.StatusOK},
		{"unknown vendor", "/api/vendors/999", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}

	vendors := decode[[]models.VendorSummary](t, s.do(t, http.MethodGet, "/api/vendors", nil, nil))
	if len(vendors) != 4 {
		t.Errorf("expected 4 vendors, got %d", len(vendors))
	}

	healthy := decode[[]models.VendorSummary](t, s.do(t, http.MethodGet, "/api/vendors?type=healthy", nil, nil))
	if len(healthy) != 1 || healthy[0].Name != "Fresh Salad Co." {
		t.Errorf("unexpected filtered vendors: %+v", healthy)
	}

	vendor := decode[models.Vendor](t, s.do(t, http.MethodGet, "/api/vendors/1", nil, nil))
	if vendor.Name != "Campus Coffee Bar" || len(vendor.Menu) != 5 {
		t.Errorf("unexpected vendor: %+v", vendor)
	}
}

func TestBasketRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	user := asUser(testUser)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"valid item", models.AddItemRequest{VendorID: "1", ItemID: "1"}, http.StatusOK},
		{"unknown vendor", models.AddItemRequest{VendorID: "9", ItemID: "1"}, http.StatusNotFound},
		{"unknown item", models.AddItemRequest{VendorID: "1", ItemID: "99"}, http.StatusNotFound},
		{"missing fields", models.AddItemRequest{VendorID: "1"}, http.StatusBadRequest},
		{"invalid JSON", "invalid json", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/basket/items", tt.body, user)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}

	view := decode[service.BasketView](t, s.do(t, http.MethodPost, "/api/basket/items", models.AddItemRequest{VendorID: "1", ItemID: "1"}, user))
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("unexpected basket: %+v", view.Items)
	}
	if !view.Summary.Total.Equal(decimal.RequireFromString("12.35")) {
		t.Errorf("total = %s, want 12.35", view.Summary.Total)
	}

	view = decode[service.BasketView](t, s.do(t, http.MethodPost, "/api/basket/items/1/decrease?vendor=The+Burger+Joint", nil, user))
	if view.Items[0].Quantity != 2 {
		t.Error("decrease scoped to another vendor changed the line")
	}

	view = decode[service.BasketView](t, s.do(t, http.MethodPost, "/api/basket/items/1/decrease", nil, user))
	if view.Items[0].Quantity != 1 {
		t.Errorf("quantity = %d, want 1", view.Items[0].Quantity)
	}

	view = decode[service.BasketView](t, s.do(t, http.MethodDelete, "/api/basket/items/1", nil, user))
	if len(view.Items) != 0 {
		t.Errorf("expected empty basket, got %+v", view.Items)
	}
	if !view.Summary.DeliveryFee.IsZero() {
		t.Errorf("empty basket delivery fee = %s, want 0", view.Summary.DeliveryFee)
	}

	s.do(t, http.MethodPost, "/api/basket/items", models.AddItemRequest{VendorID: "2", ItemID: "3"}, user)
	view = decode[service.BasketView](t, s.do(t, http.MethodDelete, "/api/basket", nil, user))
	if len(view.Items) != 0 {
		t.Errorf("clear left lines: %+v", view.Items)
	}
}

func TestBasketRoutes_RequireUser(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/basket", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestOrderRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	user := asUser(testUser)

	w := s.do(t, http.MethodPost, "/api/orders", nil, user)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty basket status = %d, want 400", w.Code)
	}

	s.do(t, http.MethodPost, "/api/basket/items", models.AddItemRequest{VendorID: "1", ItemID: "1"}, user)
	s.do(t, http.MethodPost, "/api/basket/items", models.AddItemRequest{VendorID: "1", ItemID: "1"}, user)

	w = s.do(t, http.MethodPost, "/api/orders", models.PlaceOrderRequest{PaymentMethod: "Card", PaymentDetails: "Visa 4242"}, user)
	if w.Code != http.StatusCreated {
		t.Fatalf("place order status = %d, want 201", w.Code)
	}
	placed := decode[PlaceOrderResponse](t, w)
	if !placed.Persisted {
		t.Error("expected order to be persisted")
	}
	order := placed.Order
	if order.Status != models.StatusConfirmed {
		t.Errorf("status = %q, want %q", order.Status, models.StatusConfirmed)
	}
	if !order.Total.Equal(decimal.RequireFromString("12.35")) {
		t.Errorf("total = %s, want 12.35", order.Total)
	}
	if order.EstimatedTime != "5–10 min" {
		t.Errorf("estimated time = %q", order.EstimatedTime)
	}

	basketView := decode[service.BasketView](t, s.do(t, http.MethodGet, "/api/basket", nil, user))
	if len(basketView.Items) != 0 {
		t.Error("basket not cleared after order")
	}

	got := decode[models.Order](t, s.do(t, http.MethodGet, "/api/orders/"+order.ID, nil, user))
	if got.PickupCode != order.PickupCode {
		t.Errorf("pickup code = %q, want %q", got.PickupCode, order.PickupCode)
	}

	if w := s.do(t, http.MethodGet, "/api/orders/"+order.ID, nil, asUser("someone-else")); w.Code != http.StatusNotFound {
		t.Errorf("foreign order status = %d, want 404", w.Code)
	}

	history := decode[[]models.Order](t, s.do(t, http.MethodGet, "/api/orders", nil, user))
	if len(history) != 1 {
		t.Errorf("expected 1 order in history, got %d", len(history))
	}
}

func TestOrderRoutes_PersistenceFailure(t *testing.T) {
	s := newTestServer(t, nil)
	user := asUser(testUser)
	s.orders.fail = true

	s.do(t, http.MethodPost, "/api/basket/items", models.AddItemRequest{VendorID: "3", ItemID: "1"}, user)

	w := s.do(t, http.MethodPost, "/api/orders", nil, user)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	placed := decode[PlaceOrderResponse](t, w)
	if placed.Persisted || placed.Error == "" {
		t.Errorf("unexpected response: %+v", placed)
	}
	if placed.Order.PaymentMethod != basket.DefaultPaymentMethod {
		t.Errorf("payment method = %q, want %q", placed.Order.PaymentMethod, basket.DefaultPaymentMethod)
	}

	advancePath := "/api/orders/" + placed.Order.ID + "/advance"
	if w := s.do(t, http.MethodPost, advancePath, nil, map[string]string{"api_key": "apitest"}); w.Code != http.StatusConflict {
		t.Errorf("advance pending order status = %d, want 409", w.Code)
	}

	retryPath := "/api/orders/" + placed.Order.ID + "/retry"
	if w := s.do(t, http.MethodPost, retryPath, nil, user); w.Code != http.StatusAccepted {
		t.Errorf("retry while store is down status = %d, want 202", w.Code)
	}

	s.orders.fail = false
	w = s.do(t, http.MethodPost, retryPath, nil, user)
	if w.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200", w.Code)
	}
	retried := decode[PlaceOrderResponse](t, w)
	if retried.Order.PickupCode != placed.Order.PickupCode {
		t.Error("retry changed the pickup code")
	}

	if w := s.do(t, http.MethodPost, retryPath, nil, user); w.Code != http.StatusConflict {
		t.Errorf("second retry status = %d, want 409", w.Code)
	}
}

func TestAdvanceOrder(t *testing.T) {
	s := newTestServer(t, nil)
	user := asUser(testUser)

	s.do(t, http.MethodPost, "/api/basket/items", models.AddItemRequest{VendorID: "4", ItemID: "2"}, user)
	placed := decode[PlaceOrderResponse](t, s.do(t, http.MethodPost, "/api/orders", nil, user))
	path := "/api/orders/" + placed.Order.ID + "/advance"

	if w := s.do(t, http.MethodPost, path, nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want 401", w.Code)
	}
	if w := s.do(t, http.MethodPost, path, nil, map[string]string{"api_key": "nope"}); w.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", w.Code)
	}

	vendor := map[string]string{"api_key": "apitest"}
	for _, want := range []models.OrderStatus{models.StatusPreparing, models.StatusReadyForPickup, models.StatusCompleted} {
		w := s.do(t, http.MethodPost, path, nil, vendor)
		if w.Code != http.StatusOK {
			t.Fatalf("advance status = %d, want 200", w.Code)
		}
		if order := decode[models.Order](t, w); order.Status != want {
			t.Errorf("status = %q, want %q", order.Status, want)
		}
	}

	if w := s.do(t, http.MethodPost, path, nil, vendor); w.Code != http.StatusConflict {
		t.Errorf("advance completed order status = %d, want 409", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/orders/missing/advance", nil, vendor); w.Code != http.StatusNotFound {
		t.Errorf("advance missing order status = %d, want 404", w.Code)
	}
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	user := asUser(testUser)

	profile := decode[models.Profile](t, s.do(t, http.MethodGet, "/api/profile", nil, user))
	if profile.UserID != testUser {
		t.Errorf("user id = %q, want %q", profile.UserID, testUser)
	}

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"valid update", service.ProfileUpdate{Name: "Test Student", Email: "test@campus.edu", StudentID: "603"}, http.StatusOK},
		{"invalid email", service.ProfileUpdate{Name: "Test Student", Email: "nope"}, http.StatusBadRequest},
		{"invalid JSON", "invalid json", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPut, "/api/profile", tt.body, user)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}

	profile = decode[models.Profile](t, s.do(t, http.MethodPost, "/api/profile/favorites/2", nil, user))
	if !profile.IsFavorite("2") || profile.Email != "test@campus.edu" {
		t.Errorf("unexpected profile: %+v", profile)
	}

	profile = decode[models.Profile](t, s.do(t, http.MethodPost, "/api/profile/favorites/2", nil, user))
	if profile.IsFavorite("2") {
		t.Error("second toggle should remove the favorite")
	}

	if w := s.do(t, http.MethodPost, "/api/profile/favorites/99", nil, user); w.Code != http.StatusNotFound {
		t.Errorf("unknown vendor status = %d, want 404", w.Code)
	}
}
