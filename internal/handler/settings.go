package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tripquest/internal/trip"
)

type SettingsHandler struct {
	resolver *trip.Resolver
	logger   *slog.Logger
}

func NewSettingsHandler(resolver *trip.Resolver, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{resolver: resolver, logger: logger}
}

type tripSettingsResponse struct {
	Effective trip.Settings `json:"effective"`
	Defaults  trip.Settings `json:"defaults"`
}

func (h *SettingsHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	s, err := h.resolver.Resolve()
	if err != nil {
		h.logger.Error("resolve trip settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, tripSettingsResponse{Effective: s, Defaults: h.resolver.Defaults()})
}

// UpdateTrip takes a map of trip_* keys to values. Empty values reset a key
// to its default.
func (h *SettingsHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "no settings given")
		return
	}

	s, err := h.resolver.Update(req)
	if err != nil {
		var verr *trip.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.logger.Error("update trip settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, tripSettingsResponse{Effective: s, Defaults: h.resolver.Defaults()})
}
