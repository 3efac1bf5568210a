package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/tripquest/internal/weather"
)

func TestWeatherForecast(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"current": {"temperature_2m": -3, "weather_code": 71},
			"daily": {
				"time": ["2025-12-16"],
				"temperature_2m_max": [0],
				"temperature_2m_min": [-7],
				"weather_code": [71],
				"snowfall_sum": [4.2]
			}
		}`))
	}))
	t.Cleanup(upstream.Close)

	env := setupEnv(t)
	svc := weather.NewService(weather.Config{Place: "Zakopane, Poland", Latitude: 49.3, Longitude: 19.95, BaseURL: upstream.URL}, env.logger)
	h := NewWeatherHandler(svc)

	rec := serve("GET /api/weather", h.Forecast, http.MethodGet, "/api/weather", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var f weather.Forecast
	decodeBody(t, rec, &f)
	if !f.Available || f.CurrentTemp != -3 || len(f.Days) != 1 {
		t.Errorf("forecast = %+v", f)
	}
}

func TestWeatherUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(upstream.Close)

	env := setupEnv(t)
	h := NewWeatherHandler(weather.NewService(weather.Config{Place: "Zakopane, Poland", BaseURL: upstream.URL}, env.logger))

	rec := serve("GET /api/weather", h.Forecast, http.MethodGet, "/api/weather", "")
	var f weather.Forecast
	decodeBody(t, rec, &f)
	if rec.Code != http.StatusOK || f.Available {
		t.Errorf("status = %d, available = %v", rec.Code, f.Available)
	}
}
