package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/service"
)

// BasketHandler handles basket HTTP requests for the calling user
type BasketHandler struct {
	baskets *service.BasketService
	log     *slog.Logger
}

// NewBasketHandler creates a new basket handler
func NewBasketHandler(baskets *service.BasketService, log *slog.Logger) *BasketHandler {
	return &BasketHandler{
		baskets: baskets,
		log:     log,
	}
}

// GetBasket handles GET /api/basket
func (h *BasketHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, h.baskets.View(user), h.log)
}

// AddItem handles POST /api/basket/items
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	var req models.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("failed to decode add item request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}
	if strings.TrimSpace(req.VendorID) == "" || strings.TrimSpace(req.ItemID) == "" {
		WriteError(w, http.StatusBadRequest, "vendorId and itemId are required", h.log)
		return
	}

	view, err := h.baskets.Add(r.Context(), user, req.VendorID, req.ItemID)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, view, h.log)
}

// DecreaseItem handles POST /api/basket/items/{itemId}/decrease.
// The optional vendor query parameter limits the change to that vendor's line.
func (h *BasketHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemId")
	view := h.baskets.Decrease(user, itemID, r.URL.Query().Get("vendor"))
	WriteJSON(w, http.StatusOK, view, h.log)
}

// RemoveItem handles DELETE /api/basket/items/{itemId}
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemId")
	view := h.baskets.Remove(user, itemID, r.URL.Query().Get("vendor"))
	WriteJSON(w, http.StatusOK, view, h.log)
}

// ClearBasket handles DELETE /api/basket
func (h *BasketHandler) ClearBasket(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, h.baskets.Clear(user), h.log)
}
