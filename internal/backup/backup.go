// Package backup seals progress snapshots with a passphrase and keeps them
// in S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/store"
)

var (
	ErrNotConfigured = errors.New("backup not configured: S3 credentials missing")
	ErrNotFound      = errors.New("backup not found")
	ErrBusy          = errors.New("backup already running")
)

const DefaultRetentionDays = 30

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Snapshotter is the part of a progress store that backups read and restore.
type Snapshotter interface {
	Key() string
	Current() progress.Set
	Export(progress.Set) (string, error)
	Import(string) (progress.Set, error)
	Save(progress.Set) error
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager manages encrypted snapshot backups.
type Manager struct {
	mu       sync.RWMutex
	bucket   string
	status   Status
	callback StatusCallback
	logger   *slog.Logger
	now      func() time.Time

	progress      Snapshotter
	backupStore   *store.BackupStore
	settingsStore *store.SettingsStore
	client        s3Client

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. It starts disabled when cfg lacks credentials.
func NewManager(cfg S3Config, ps Snapshotter, bs *store.BackupStore, ss *store.SettingsStore, logger *slog.Logger, callback StatusCallback) *Manager {
	m := &Manager{
		bucket:        cfg.Bucket,
		progress:      ps,
		backupStore:   bs,
		settingsStore: ss,
		callback:      callback,
		logger:        logger.With("component", "backup"),
		now:           time.Now,
		status:        Status{State: StateDisabled},
	}
	if cfg.Enabled() {
		m.client = newS3Client(cfg)
		m.status.State = StateIdle
	}
	if bs != nil {
		if latest, err := bs.LatestCompleted(); err != nil {
			m.logger.Warn("read latest backup", "error", err)
		} else if latest != nil {
			m.status.LastBackup = latest.CompletedAt
		}
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start runs retention cleanup once an hour until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled || m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Cleanup(ctx, m.retentionDays()); err != nil {
					m.logger.Error("scheduled cleanup", "error", err)
				}
			}
		}
	}()
}

// Stop halts the cleanup loop. It is safe to call more than once.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Slot is the progress slot this manager backs up.
func (m *Manager) Slot() string {
	return m.progress.Key()
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(recordID int64, last *time.Time, err error) {
	if recordID != 0 {
		if uerr := m.backupStore.UpdateStatus(recordID, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "backup_id", recordID, "error", uerr)
		}
	}
	m.setStatus(Status{State: StateError, Error: err.Error(), LastBackup: last})
}

func (m *Manager) retentionDays() int {
	settings, err := m.settingsStore.GetBackupSettings()
	if err != nil {
		m.logger.Warn("read backup settings", "error", err)
		return DefaultRetentionDays
	}
	days, err := strconv.Atoi(settings["backup_retention_days"])
	if err != nil || days <= 0 {
		return DefaultRetentionDays
	}
	return days
}

// salt returns the stored passphrase salt, creating one on first use.
func (m *Manager) salt() ([]byte, error) {
	settings, err := m.settingsStore.GetBackupSettings()
	if err != nil {
		return nil, fmt.Errorf("get backup settings: %w", err)
	}
	if saltHex := settings["backup_passphrase_salt"]; saltHex != "" {
		salt, err := hex.DecodeString(saltHex)
		if err != nil {
			return nil, fmt.Errorf("decode salt: %w", err)
		}
		return salt, nil
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := m.settingsStore.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("store salt: %w", err)
	}
	return salt, nil
}

// RunNow exports the live progress set, seals it with passphrase and uploads it.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (*model.Backup, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is required")
	}

	m.mu.Lock()
	client := m.client
	if client == nil {
		m.mu.Unlock()
		return nil, ErrNotConfigured
	}
	if m.status.InProgress {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	last := m.status.LastBackup
	m.status = Status{State: StateRunning, InProgress: true, LastBackup: last}
	running := m.status
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(running)
	}

	salt, err := m.salt()
	if err != nil {
		m.fail(0, last, err)
		return nil, err
	}

	now := m.now().UTC()
	filename := now.Format("2006-01-02T150405.000Z") + ".json.enc"
	objectKey := "backups/" + filename

	record, err := m.backupStore.Create(m.progress.Key(), filename, objectKey)
	if err != nil {
		m.fail(0, last, err)
		return nil, fmt.Errorf("create backup record: %w", err)
	}

	set := m.progress.Current()
	text, err := m.progress.Export(set)
	if err != nil {
		m.fail(record.ID, last, err)
		return nil, fmt.Errorf("export progress: %w", err)
	}

	sealed, err := Seal([]byte(text), passphrase, salt)
	if err != nil {
		m.fail(record.ID, last, err)
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	if err := m.backupStore.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		m.logger.Warn("mark backup uploading", "backup_id", record.ID, "error", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		m.fail(record.ID, last, err)
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.backupStore.UpdateCompleted(record.ID, int64(len(sealed)), set.Len()); err != nil {
		m.fail(record.ID, last, err)
		return nil, err
	}

	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "backup_id", record.ID, "key", objectKey, "items", set.Len(), "bytes", len(sealed))

	return m.backupStore.GetByID(record.ID)
}

// Restore downloads a backup, decrypts it and replaces the live progress set.
// Version mismatches and malformed payloads are returned as progress errors.
func (m *Manager) Restore(ctx context.Context, backupID int64, passphrase string) (progress.Set, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrNotConfigured
	}

	record, err := m.backupStore.GetByID(backupID)
	if err != nil {
		return nil, fmt.Errorf("get backup: %w", err)
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		return nil, ErrNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(record.ObjectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read backup body: %w", err)
	}

	plaintext, err := Open(sealed, passphrase)
	if err != nil {
		return nil, err
	}

	set, err := m.progress.Import(string(plaintext))
	if err != nil {
		return nil, fmt.Errorf("import backup %d: %w", backupID, err)
	}
	// The live set is replaced even when the write fails; callers get it back with the error.
	if err := m.progress.Save(set); err != nil {
		m.logger.Warn("restored backup not persisted", "backup_id", backupID, "error", err)
		return set, fmt.Errorf("save restored progress: %w", err)
	}

	m.logger.Info("backup restored", "backup_id", backupID, "items", set.Len())
	return set, nil
}

// List returns the most recent backup records.
func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.backupStore.List(limit)
}

// Cleanup deletes backups older than the retention period.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	before := m.now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.backupStore.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete S3 object", "key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		m.logger.Info("expired backups removed", "count", len(keys), "retention_days", retentionDays)
	}
	return nil
}
