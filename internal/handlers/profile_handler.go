package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/campus-queue/internal/service"
)

// ProfileHandler handles profile HTTP requests for the calling user
type ProfileHandler struct {
	profiles *service.ProfileService
	log      *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *service.ProfileService, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		log:      log,
	}
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, profile, h.log)
}

// UpdateProfile handles PUT /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	var req service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("failed to decode profile request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	profile, err := h.profiles.Update(r.Context(), user, req)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, profile, h.log)
}

// ToggleFavorite handles POST /api/profile/favorites/{vendorId}
func (h *ProfileHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.log)
	if !ok {
		return
	}

	profile, err := h.profiles.ToggleFavoriteVendor(r.Context(), user, chi.URLParam(r, "vendorId"))
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, profile, h.log)
}
