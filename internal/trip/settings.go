// Package trip resolves the effective departure date and cost rates: stored
// overrides first, then configured defaults, then the catalog.
package trip

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/stats"
	"github.com/dukerupert/tripquest/internal/store"
)

// Settings are the user-adjustable trip parameters.
type Settings struct {
	Departure string      `json:"departure"`
	Rates     stats.Rates `json:"rates"`
}

// DepartureDate parses Departure.
func (s Settings) DepartureDate() (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s.Departure)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse departure: %w", err)
	}
	return t, nil
}

// Resolver merges stored overrides over defaults.
type Resolver struct {
	store    *store.SettingsStore
	defaults Settings
}

// NewResolver builds a resolver. An empty default departure falls back to the
// catalog's departure date.
func NewResolver(ss *store.SettingsStore, c *catalog.Catalog, defaults Settings) *Resolver {
	if defaults.Departure == "" {
		defaults.Departure = c.Trip.Departure
	}
	if defaults.Rates.Currency == "" {
		defaults.Rates.Currency = stats.DefaultCurrency
	}
	return &Resolver{store: ss, defaults: defaults}
}

func (r *Resolver) Defaults() Settings {
	return r.defaults
}

// Resolve returns the effective settings.
func (r *Resolver) Resolve() (Settings, error) {
	stored, err := r.store.GetTripSettings()
	if err != nil {
		return Settings{}, err
	}

	s := r.defaults
	if v := stored["trip_departure"]; v != "" {
		s.Departure = v
	}
	if v := stored["trip_currency"]; v != "" {
		s.Rates.Currency = v
	}
	for key, dst := range map[string]*int{
		"trip_nightly_rate":      &s.Rates.Nightly,
		"trip_daily_food_rate":   &s.Rates.DailyFood,
		"trip_activities_budget": &s.Rates.Activities,
	} {
		v := stored[key]
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("stored %s %q: %w", key, v, err)
		}
		*dst = n
	}
	return s, nil
}

// Update validates and stores overrides. Keys are the trip_* setting names;
// an empty value clears the override.
func (r *Resolver) Update(values map[string]string) (Settings, error) {
	clean := make(map[string]string, len(values))
	for key, value := range values {
		value = strings.TrimSpace(value)
		if err := validate(key, value); err != nil {
			return Settings{}, err
		}
		clean[key] = value
	}
	if err := r.store.SetMany(clean); err != nil {
		return Settings{}, err
	}
	return r.Resolve()
}

// ValidationError marks caller mistakes in Update.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

func validate(key, value string) error {
	if !store.IsTripKey(key) {
		return &ValidationError{Key: key, Reason: "is not a trip setting"}
	}
	if value == "" {
		return nil
	}
	switch key {
	case "trip_departure":
		if _, err := time.Parse(model.DateLayout, value); err != nil {
			return &ValidationError{Key: key, Reason: "must be YYYY-MM-DD"}
		}
	case "trip_currency":
		if !isCurrencyCode(value) {
			return &ValidationError{Key: key, Reason: "must be a 3-letter currency code"}
		}
	default:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return &ValidationError{Key: key, Reason: "must be a non-negative integer"}
		}
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
