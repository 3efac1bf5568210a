// Package weather reports conditions at the trip destination from open-meteo.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	cacheTTL       = 30 * time.Minute
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	forecastDays   = 3
)

type Config struct {
	Place     string
	Latitude  float64
	Longitude float64
	Units     string // "celsius" or "fahrenheit"
	BaseURL   string
}

// Day is one day of the forecast.
type Day struct {
	Date        string  `json:"date"`
	Code        int     `json:"code"`
	Description string  `json:"description"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	SnowfallCM  float64 `json:"snowfall_cm"`
}

// Forecast is the cached destination weather.
type Forecast struct {
	Place             string    `json:"place"`
	CurrentTemp       float64   `json:"current_temp"`
	CurrentCode       int       `json:"current_code"`
	CurrentDesc       string    `json:"current_desc"`
	Unit              string    `json:"unit"`
	Days              []Day     `json:"days,omitempty"`
	SnowboardFriendly bool      `json:"snowboard_friendly"`
	FetchedAt         time.Time `json:"fetched_at,omitempty"`
	Available         bool      `json:"available"`
}

// Service fetches and caches the forecast.
type Service struct {
	config Config
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	cached    Forecast
	lastFetch time.Time
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.Units != "fahrenheit" {
		cfg.Units = "celsius"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Service{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With("component", "weather"),
		now:    time.Now,
		cached: Forecast{Place: cfg.Place, Unit: unitSymbol(cfg.Units)},
	}
}

func unitSymbol(units string) string {
	if units == "fahrenheit" {
		return "F"
	}
	return "C"
}

// Get returns the forecast, refreshing it when the cache is older than 30
// minutes. A failed refresh serves the previous forecast. Without a place
// the service never calls upstream and stays unavailable.
func (s *Service) Get(ctx context.Context) Forecast {
	if s.config.Place == "" {
		return s.cached
	}

	s.mu.RLock()
	if s.fresh() {
		data := s.cached
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock.
	if s.fresh() {
		return s.cached
	}

	data, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("fetch forecast", "place", s.config.Place, "error", err)
		return s.cached
	}

	s.cached = data
	s.lastFetch = data.FetchedAt
	return s.cached
}

func (s *Service) fresh() bool {
	return s.cached.Available && s.now().Sub(s.lastFetch) < cacheTTL
}

type apiResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weather_code"`
		SnowfallSum []float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

func (s *Service) fetch(ctx context.Context) (Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(s.config.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(s.config.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code,snowfall_sum")
	q.Set("timezone", "auto")
	q.Set("forecast_days", strconv.Itoa(forecastDays))
	q.Set("temperature_unit", s.config.Units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Forecast{}, fmt.Errorf("decode weather response: %w", err)
	}

	data := Forecast{
		Place:       s.config.Place,
		CurrentTemp: apiResp.Current.Temperature,
		CurrentCode: apiResp.Current.WeatherCode,
		CurrentDesc: Describe(apiResp.Current.WeatherCode),
		Unit:        unitSymbol(s.config.Units),
		FetchedAt:   s.now(),
		Available:   true,
	}

	d := apiResp.Daily
	for i := range d.Time {
		day := Day{Date: d.Time[i]}
		if i < len(d.WeatherCode) {
			day.Code = d.WeatherCode[i]
			day.Description = Describe(day.Code)
		}
		if i < len(d.TempMax) {
			day.High = d.TempMax[i]
		}
		if i < len(d.TempMin) {
			day.Low = d.TempMin[i]
		}
		if i < len(d.SnowfallSum) {
			day.SnowfallCM = d.SnowfallSum[i]
		}
		data.Days = append(data.Days, day)
	}
	data.SnowboardFriendly = snowboardFriendly(data)

	return data, nil
}

// snowboardFriendly is true when it is snowing now or fresh snow is forecast.
func snowboardFriendly(f Forecast) bool {
	if IsSnow(f.CurrentCode) {
		return true
	}
	for _, d := range f.Days {
		if IsSnow(d.Code) || d.SnowfallCM > 0 {
			return true
		}
	}
	return false
}

// IsSnow reports whether a WMO code describes snowfall.
func IsSnow(code int) bool {
	switch code {
	case 71, 73, 75, 77, 85, 86:
		return true
	}
	return false
}

// Describe maps a WMO weather code to a human-readable description.
func Describe(code int) string {
	switch code {
	case 0:
		return "Clear sky"
	case 1:
		return "Mainly clear"
	case 2:
		return "Partly cloudy"
	case 3:
		return "Overcast"
	case 45, 48:
		return "Foggy"
	case 51:
		return "Light drizzle"
	case 53:
		return "Moderate drizzle"
	case 55:
		return "Dense drizzle"
	case 56, 57:
		return "Freezing drizzle"
	case 61:
		return "Slight rain"
	case 63:
		return "Moderate rain"
	case 65:
		return "Heavy rain"
	case 66, 67:
		return "Freezing rain"
	case 71:
		return "Slight snow"
	case 73:
		return "Moderate snow"
	case 75:
		return "Heavy snow"
	case 77:
		return "Snow grains"
	case 80:
		return "Slight showers"
	case 81:
		return "Moderate showers"
	case 82:
		return "Violent showers"
	case 85:
		return "Slight snow showers"
	case 86:
		return "Heavy snow showers"
	case 95:
		return "Thunderstorm"
	case 96, 99:
		return "Thunderstorm with hail"
	default:
		return "Unknown"
	}
}
