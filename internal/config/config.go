// Package config reads TRIPQUEST_* settings from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/tripquest/internal/backup"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/stats"
)

const prefix = "TRIPQUEST_"

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	Catalog   string
	Departure string
	Rates     stats.Rates
	Weather   WeatherConfig
	S3        backup.S3Config
	WSOrigins []string
}

type WeatherConfig struct {
	Units string
}

// Load reads the given .env files (default ".env"; missing files are
// skipped), then the environment. Variables already set win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var r reader
	defaults := stats.DefaultRates()
	cfg := &Config{
		Port:      r.str("PORT", "8080"),
		DBPath:    r.str("DB_PATH", "tripquest.db"),
		LogLevel:  r.str("LOG_LEVEL", "info"),
		LogFormat: r.str("LOG_FORMAT", "text"),
		Catalog:   r.str("CATALOG_PATH", ""),
		Departure: r.str("DEPARTURE", ""),
		Rates: stats.Rates{
			Nightly:    r.integer("NIGHTLY_RATE", defaults.Nightly),
			DailyFood:  r.integer("DAILY_FOOD_RATE", defaults.DailyFood),
			Activities: r.integer("ACTIVITIES_BUDGET", defaults.Activities),
			Currency:   r.str("CURRENCY", defaults.Currency),
		},
		Weather: WeatherConfig{
			Units: r.str("WEATHER_UNITS", "celsius"),
		},
		S3: backup.S3Config{
			Endpoint:  r.str("S3_ENDPOINT", ""),
			Bucket:    r.str("S3_BUCKET", ""),
			Region:    r.str("S3_REGION", "us-east-1"),
			AccessKey: r.str("S3_ACCESS_KEY", ""),
			SecretKey: r.str("S3_SECRET_KEY", ""),
		},
		WSOrigins: r.list("WS_ORIGINS"),
	}

	if err := cfg.validate(); err != nil {
		r.errs = append(r.errs, err)
	}
	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(r.errs...))
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Departure != "" {
		if _, err := time.Parse(model.DateLayout, c.Departure); err != nil {
			errs = append(errs, fmt.Errorf("%sDEPARTURE: want YYYY-MM-DD, got %q", prefix, c.Departure))
		}
	}
	switch c.Weather.Units {
	case "celsius", "fahrenheit":
	default:
		errs = append(errs, fmt.Errorf("%sWEATHER_UNITS: want celsius or fahrenheit, got %q", prefix, c.Weather.Units))
	}
	if c.Rates.Nightly < 0 || c.Rates.DailyFood < 0 || c.Rates.Activities < 0 {
		errs = append(errs, fmt.Errorf("cost rates must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// reader collects parse errors so every bad variable is reported at once.
type reader struct {
	errs []error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(prefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %q is not an integer", prefix, key, v))
		return def
	}
	return n
}

func (r *reader) list(key string) []string {
	v := r.str(key, "")
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
