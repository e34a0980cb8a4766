package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/campus-queue/internal/basket"
	"github.com/Lixing-Zhang/campus-queue/internal/middleware"
	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
	"github.com/Lixing-Zhang/campus-queue/internal/service"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// writeServiceError maps domain errors to status codes
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, basket.ErrEmptyBasket):
		WriteError(w, http.StatusBadRequest, "Basket is empty", logger)
	case errors.Is(err, service.ErrInvalidEmail):
		WriteError(w, http.StatusBadRequest, "Email address is not valid", logger)
	case errors.Is(err, repository.ErrVendorNotFound):
		WriteError(w, http.StatusNotFound, "Vendor not found", logger)
	case errors.Is(err, repository.ErrItemNotFound):
		WriteError(w, http.StatusNotFound, "Menu item not found", logger)
	case errors.Is(err, repository.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "Order not found", logger)
	case errors.Is(err, service.ErrOrderNotPending):
		WriteError(w, http.StatusConflict, "Order is not awaiting persistence", logger)
	case errors.Is(err, service.ErrOrderNotPersisted):
		WriteError(w, http.StatusConflict, "Order is still awaiting persistence", logger)
	case errors.Is(err, models.ErrTerminalStatus):
		WriteError(w, http.StatusConflict, "Order is already completed", logger)
	case errors.Is(err, models.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "Order status changed concurrently", logger)
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
	}
}

// userID returns the identity placed in the context by middleware.RequireUser
func userID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "User identity required", logger)
		return "", false
	}
	return id, true
}
