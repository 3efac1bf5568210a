package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tripquest/internal/backup"
	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/handler"
	"github.com/dukerupert/tripquest/internal/middleware"
	"github.com/dukerupert/tripquest/internal/store"
	"github.com/dukerupert/tripquest/internal/trip"
	"github.com/dukerupert/tripquest/internal/weather"
	ws "github.com/dukerupert/tripquest/internal/websocket"
)

// Import and restore requests allowed per client IP per window.
const (
	importLimit  = 10
	importWindow = time.Minute
)

type Server struct {
	hub         *ws.Hub
	wsOrigins   []string
	checklistH  *handler.ChecklistHandler
	packingH    *handler.PackingHandler
	timelineH   *handler.TimelineHandler
	dashboardH  *handler.DashboardHandler
	weatherH    *handler.WeatherHandler
	settingsH   *handler.SettingsHandler
	backupH     *handler.BackupHandler
	rateLimiter *middleware.RateLimiter
	backupMgr   *backup.Manager
	logger      *slog.Logger
}

type Options struct {
	Defaults  trip.Settings
	S3        backup.S3Config
	WSOrigins []string
}

func New(db *sql.DB, c *catalog.Catalog, weatherSvc *weather.Service, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)

	slotStore := store.NewSlotStore(db)
	settingsStore := store.NewSettingsStore(db)
	backupStore := store.NewBackupStore(db)

	checklist, packing := trip.OpenSlots(slotStore, c, logger)
	resolver := trip.NewResolver(settingsStore, c, opts.Defaults)

	backupMgr := backup.NewManager(opts.S3, checklist, backupStore, settingsStore, logger, func(s backup.Status) {
		hub.Broadcast(ws.BackupStatus(s))
	})

	return &Server{
		hub:         hub,
		wsOrigins:   opts.WSOrigins,
		checklistH:  handler.NewChecklistHandler(c, checklist, hub, logger.With("component", "checklist")),
		packingH:    handler.NewPackingHandler(c, packing, hub, logger.With("component", "packing")),
		timelineH:   handler.NewTimelineHandler(c),
		dashboardH:  handler.NewDashboardHandler(c, checklist, packing, resolver, logger.With("component", "dashboard")),
		weatherH:    handler.NewWeatherHandler(weatherSvc),
		settingsH:   handler.NewSettingsHandler(resolver, logger.With("component", "settings")),
		backupH:     handler.NewBackupHandler(backupMgr, hub, logger.With("component", "backup_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		backupMgr:   backupMgr,
		logger:      logger,
	}
}

// Hub returns the websocket hub for shutdown.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupMgr
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Checklist
	mux.HandleFunc("GET /api/checklist/items", s.checklistH.Items)
	mux.HandleFunc("POST /api/checklist/items/{id}/toggle", s.checklistH.Toggle)
	mux.HandleFunc("GET /api/checklist/progress", s.checklistH.Progress)
	mux.HandleFunc("DELETE /api/checklist/progress", s.checklistH.Clear)
	mux.HandleFunc("GET /api/checklist/export", s.checklistH.Export)
	mux.HandleFunc("POST /api/checklist/import", s.rateLimitedHandler("import", s.checklistH.Import))

	// Packing
	mux.HandleFunc("GET /api/packing", s.packingH.List)
	mux.HandleFunc("POST /api/packing/toggle", s.packingH.Toggle)
	mux.HandleFunc("POST /api/packing/import", s.rateLimitedHandler("import", s.packingH.Import))
	mux.HandleFunc("DELETE /api/packing/progress", s.packingH.Clear)

	// Itinerary
	mux.HandleFunc("GET /api/timeline", s.timelineH.Timeline)
	mux.HandleFunc("GET /api/timeline/phases", s.timelineH.Phases)
	mux.HandleFunc("GET /api/route", s.timelineH.Route)

	mux.HandleFunc("GET /api/dashboard", s.dashboardH.Dashboard)
	mux.HandleFunc("GET /api/weather", s.weatherH.Forecast)

	mux.HandleFunc("GET /api/settings/trip", s.settingsH.GetTrip)
	mux.HandleFunc("PUT /api/settings/trip", s.settingsH.UpdateTrip)

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Create)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.rateLimitedHandler("restore", s.backupH.Restore))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.wsOrigins))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"backup":  s.backupMgr.Status().State,
	})
}

func (s *Server) rateLimitedHandler(scope string, h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIP(scope), importLimit, importWindow)
	return rl(h).ServeHTTP
}
