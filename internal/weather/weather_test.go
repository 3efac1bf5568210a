package weather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const zakopanePayload = `{
	"current": {"temperature_2m": -4.5, "weather_code": 3},
	"daily": {
		"time": ["2025-12-16", "2025-12-17", "2025-12-18"],
		"temperature_2m_max": [-1.0, 0.5, 2.0],
		"temperature_2m_min": [-8.0, -6.5, -3.0],
		"weather_code": [3, 73, 2],
		"snowfall_sum": [0, 12.6, 0]
	}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *clock, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	svc := NewService(Config{Place: "Zakopane, Poland", Latitude: 49.2992, Longitude: 19.9496, BaseURL: srv.URL}, testLogger())
	c := &clock{t: time.Date(2025, 12, 16, 8, 0, 0, 0, time.UTC)}
	svc.now = c.now
	return svc, c, &calls
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear sky"},
		{3, "Overcast"},
		{48, "Foggy"},
		{63, "Moderate rain"},
		{75, "Heavy snow"},
		{86, "Heavy snow showers"},
		{99, "Thunderstorm with hail"},
		{999, "Unknown"},
	}
	for _, tt := range tests {
		if got := Describe(tt.code); got != tt.want {
			t.Errorf("Describe(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestGetParsesForecast(t *testing.T) {
	var query string
	svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		io.WriteString(w, zakopanePayload)
	})

	f := svc.Get(context.Background())
	if !f.Available {
		t.Fatal("expected forecast to be available")
	}
	if f.CurrentTemp != -4.5 || f.CurrentDesc != "Overcast" || f.Unit != "C" {
		t.Errorf("current = %+v", f)
	}
	if len(f.Days) != 3 {
		t.Fatalf("days = %d, want 3", len(f.Days))
	}
	if f.Days[1].Description != "Moderate snow" || f.Days[1].SnowfallCM != 12.6 {
		t.Errorf("day 2 = %+v", f.Days[1])
	}
	if !f.SnowboardFriendly {
		t.Error("snow in the forecast should be snowboard friendly")
	}

	for _, want := range []string{"latitude=49.2992", "longitude=19.9496", "temperature_unit=celsius", "forecast_days=3"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestGetCachesForTTL(t *testing.T) {
	svc, c, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, zakopanePayload)
	})

	svc.Get(context.Background())
	svc.Get(context.Background())
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("API calls = %d, want 1", n)
	}

	c.t = c.t.Add(31 * time.Minute)
	svc.Get(context.Background())
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Errorf("API calls after TTL = %d, want 2", n)
	}
}

func TestGetServesStaleOnError(t *testing.T) {
	var fail atomic.Bool
	svc, c, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, zakopanePayload)
	})

	first := svc.Get(context.Background())
	fail.Store(true)
	c.t = c.t.Add(time.Hour)

	second := svc.Get(context.Background())
	if !second.Available || second.CurrentTemp != first.CurrentTemp {
		t.Errorf("stale forecast = %+v", second)
	}
}

func TestGetUnavailable(t *testing.T) {
	svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f := svc.Get(context.Background())
	if f.Available {
		t.Error("expected unavailable forecast")
	}
	if f.Place != "Zakopane, Poland" || f.Unit != "C" {
		t.Errorf("placeholder = %+v", f)
	}
}

func TestGetWithoutPlaceSkipsUpstream(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(zakopanePayload))
	}))
	t.Cleanup(srv.Close)

	svc := NewService(Config{BaseURL: srv.URL}, testLogger())
	for i := 0; i < 3; i++ {
		if f := svc.Get(context.Background()); f.Available {
			t.Fatalf("forecast available without a place: %+v", f)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

func TestSnowboardFriendly(t *testing.T) {
	if snowboardFriendly(Forecast{CurrentCode: 0, Days: []Day{{Code: 1}, {Code: 2}}}) {
		t.Error("clear days are not snowboard friendly")
	}
	if !snowboardFriendly(Forecast{CurrentCode: 85}) {
		t.Error("snow showers now should be snowboard friendly")
	}
	if !snowboardFriendly(Forecast{Days: []Day{{Code: 3, SnowfallCM: 2}}}) {
		t.Error("measured snowfall should be snowboard friendly")
	}
}
