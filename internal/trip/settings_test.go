package trip

import (
	"errors"
	"testing"

	"github.com/dukerupert/tripquest/internal/database"
	"github.com/dukerupert/tripquest/internal/stats"
	"github.com/dukerupert/tripquest/internal/store"
)

func setupResolver(t *testing.T, defaults Settings) *Resolver {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewResolver(store.NewSettingsStore(db), defaultCatalog(t), defaults)
}

func TestResolveDefaults(t *testing.T) {
	r := setupResolver(t, Settings{Rates: stats.DefaultRates()})

	s, err := r.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Departure != "2025-12-13" {
		t.Errorf("departure = %q, want catalog date", s.Departure)
	}
	if s.Rates != stats.DefaultRates() {
		t.Errorf("rates = %+v", s.Rates)
	}

	dep, err := s.DepartureDate()
	if err != nil || dep.Day() != 13 {
		t.Errorf("DepartureDate = %v, %v", dep, err)
	}
}

func TestResolveConfiguredDeparture(t *testing.T) {
	r := setupResolver(t, Settings{Departure: "2025-12-14", Rates: stats.DefaultRates()})
	s, _ := r.Resolve()
	if s.Departure != "2025-12-14" {
		t.Errorf("departure = %q", s.Departure)
	}
}

func TestUpdateOverridesAndClears(t *testing.T) {
	r := setupResolver(t, Settings{Rates: stats.DefaultRates()})

	s, err := r.Update(map[string]string{
		"trip_departure":    "2025-12-20",
		"trip_nightly_rate": "95",
		"trip_currency":     "PLN",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Departure != "2025-12-20" || s.Rates.Nightly != 95 || s.Rates.Currency != "PLN" {
		t.Errorf("settings = %+v", s)
	}
	if s.Rates.DailyFood != 60 {
		t.Errorf("untouched rate changed: %+v", s.Rates)
	}

	s, err = r.Update(map[string]string{"trip_nightly_rate": ""})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Rates.Nightly != 80 {
		t.Errorf("nightly after clear = %d, want 80", s.Rates.Nightly)
	}
}

func TestUpdateValidation(t *testing.T) {
	r := setupResolver(t, Settings{Rates: stats.DefaultRates()})

	tests := []map[string]string{
		{"trip_departure": "next week"},
		{"trip_nightly_rate": "-1"},
		{"trip_activities_budget": "lots"},
		{"trip_currency": "euro"},
		{"trip_currency": "eur"},
		{"trip_currency": "123"},
		{"trip_currency": "1$%"},
		{"backup_passphrase_salt": "00"},
	}
	for _, values := range tests {
		_, err := r.Update(values)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Update(%v) error = %v, want ValidationError", values, err)
		}
	}

	s, _ := r.Resolve()
	if s.Departure != "2025-12-13" {
		t.Error("rejected update was partially applied")
	}
}
