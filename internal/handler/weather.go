package handler

import (
	"net/http"

	"github.com/dukerupert/tripquest/internal/weather"
)

type WeatherHandler struct {
	svc *weather.Service
}

func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{svc: svc}
}

// Forecast serves the cached destination forecast. An unavailable forecast is
// still a 200 with available=false.
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Get(r.Context()))
}
