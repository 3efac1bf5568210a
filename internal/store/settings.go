package store

import (
	"database/sql"
	"fmt"
	"time"
)

var tripKeys = []string{
	"trip_departure",
	"trip_nightly_rate",
	"trip_daily_food_rate",
	"trip_activities_budget",
	"trip_currency",
}

var backupKeys = []string{
	"backup_passphrase_salt",
	"backup_retention_days",
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %q not found", key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// SetMany writes every pair in one transaction.
func (s *SettingsStore) SetMany(values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, value := range values {
		_, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now,
		)
		if err != nil {
			return fmt.Errorf("set setting %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

func (s *SettingsStore) GetTripSettings() (map[string]string, error) {
	return s.getGroup("trip", tripKeys)
}

func (s *SettingsStore) GetBackupSettings() (map[string]string, error) {
	return s.getGroup("backup", backupKeys)
}

func (s *SettingsStore) getGroup(group string, keys []string) (map[string]string, error) {
	settings := make(map[string]string)
	for _, key := range keys {
		var value string
		err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s setting %q: %w", group, key, err)
		}
		settings[key] = value
	}
	return settings, nil
}

// IsTripKey reports whether key belongs to the trip settings group.
func IsTripKey(key string) bool {
	for _, k := range tripKeys {
		if k == key {
			return true
		}
	}
	return false
}
