package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/tripquest/internal/backup"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/websocket"
)

const defaultBackupListLimit = 20

// backupService is the part of backup.Manager the handler drives.
type backupService interface {
	Slot() string
	Status() backup.Status
	RunNow(ctx context.Context, passphrase string) (*model.Backup, error)
	Restore(ctx context.Context, backupID int64, passphrase string) (progress.Set, error)
	List(limit int) ([]model.Backup, error)
}

type BackupHandler struct {
	broadcaster
	manager backupService
	logger  *slog.Logger
}

func NewBackupHandler(m backupService, hub *websocket.Hub, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		broadcaster: broadcaster{hub: hub},
		manager:     m,
		logger:      logger,
	}
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// backupStatus maps manager errors to HTTP status codes.
func backupStatus(err error) int {
	switch {
	case errors.Is(err, backup.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, backup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backup.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, backup.ErrDecrypt):
		return http.StatusUnauthorized
	case errors.Is(err, progress.ErrSchemaVersionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, progress.ErrMalformedPayload):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	b, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		status := backupStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("run backup", "error", err)
			writeError(w, status, "backup failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultBackupListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	backups, err := h.manager.List(limit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}
	var req passphraseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	set, err := h.manager.Restore(r.Context(), id, req.Passphrase)
	persisted := true
	if err != nil && set != nil && errors.Is(err, progress.ErrStorageUnavailable) {
		h.logger.Warn("restore not persisted", "backup_id", id, "error", err)
		persisted = false
		err = nil
	}
	if err != nil {
		status := backupStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("restore backup", "backup_id", id, "error", err)
			writeError(w, status, "restore failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	h.broadcast(websocket.ProgressImported(h.manager.Slot(), "restore", set.Len()))
	writeJSON(w, http.StatusOK, map[string]any{
		"backup_id":     id,
		"checked_items": set.Sorted(),
		"persisted":     persisted,
	})
}
