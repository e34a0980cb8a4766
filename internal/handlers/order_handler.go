package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// PlaceOrderResponse wraps a placed order with its storage outcome
type PlaceOrderResponse struct {
	Order     models.Order `json:"order"`
	Persisted bool         `json:"persisted"`
	Error     string       `json:"error,omitempty"`
}

// PlaceOrder handles POST /api/orders
// - 201: order placed and stored
// - 202: order placed, storage pending; retry via /api/orders/{orderId}/retry
// - 400: basket is empty or body is invalid
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	// An empty body places the order with default payment settings
	var req models.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("failed to decode order request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), user, req)

	var perr *service.PersistenceError
	switch {
	case err == nil:
		WriteJSON(w, http.StatusCreated, PlaceOrderResponse{Order: order, Persisted: true}, h.log)
	case errors.As(err, &perr):
		WriteJSON(w, http.StatusAccepted, PlaceOrderResponse{
			Order:     perr.Order,
			Persisted: false,
			Error:     "Order created locally but not yet confirmed remotely",
		}, h.log)
	default:
		writeServiceError(w, err, h.log)
	}
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, orders, h.log)
}

// GetOrder handles GET /api/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), user, chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}

// RetryOrder handles POST /api/orders/{orderId}/retry
func (h *OrderHandler) RetryOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	order, err := h.orderService.RetryPersist(r.Context(), user, chi.URLParam(r, "orderId"))

	var perr *service.PersistenceError
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, PlaceOrderResponse{Order: order, Persisted: true}, h.log)
	case errors.As(err, &perr):
		WriteJSON(w, http.StatusAccepted, PlaceOrderResponse{
			Order:     perr.Order,
			Persisted: false,
			Error:     "Order created locally but not yet confirmed remotely",
		}, h.log)
	default:
		writeServiceError(w, err, h.log)
	}
}

// AdvanceOrder handles POST /api/orders/{orderId}/advance
// Vendor-side fulfillment event; moves the order one status forward.
func (h *OrderHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.AdvanceStatus(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}
