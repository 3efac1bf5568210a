package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/stats"
	"github.com/dukerupert/tripquest/internal/trip"
)

type DashboardHandler struct {
	catalog   *catalog.Catalog
	checklist *progress.Store
	packing   *progress.Store
	settings  *trip.Resolver
	now       func() time.Time
	logger    *slog.Logger
}

func NewDashboardHandler(c *catalog.Catalog, checklist, packing *progress.Store, settings *trip.Resolver, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		catalog:   c,
		checklist: checklist,
		packing:   packing,
		settings:  settings,
		now:       time.Now,
		logger:    logger,
	}
}

type phaseSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Events      int    `json:"events"`
	DrivingDays int    `json:"driving_days"`
}

type dashboardResponse struct {
	Trip             string            `json:"trip"`
	Departure        string            `json:"departure"`
	DaysUntil        int               `json:"days_until_departure"`
	Destination      *model.RoutePoint `json:"destination,omitempty"`
	Summary          stats.TripStats   `json:"summary"`
	Checklist        stats.Progress    `json:"checklist"`
	XP               stats.XPProgress  `json:"xp"`
	Packing          stats.Progress    `json:"packing"`
	HighPriorityOpen int               `json:"high_priority_open"`
	RemainingTime    string            `json:"remaining_time"`
	Phases           []phaseSummary    `json:"phases"`
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Resolve()
	if err != nil {
		h.logger.Error("resolve trip settings", "error", err)
		settings = h.settings.Defaults()
	}
	departure, err := settings.DepartureDate()
	if err != nil {
		h.logger.Error("departure date", "departure", settings.Departure, "error", err)
		writeError(w, http.StatusInternalServerError, "invalid departure date")
		return
	}

	items := h.catalog.Checklist
	checked := h.checklist.Current()

	resp := dashboardResponse{
		Trip:          h.catalog.Trip.Name,
		Departure:     settings.Departure,
		DaysUntil:     stats.DaysUntilDeparture(departure, h.now()),
		Summary:       stats.Summary(h.catalog.Timeline, settings.Rates),
		Checklist:     stats.Completion(items, checked),
		XP:            stats.XP(items, checked),
		Packing:       stats.PackingCompletion(h.catalog.Packing, h.packing.Current()),
		RemainingTime: stats.EstimateCompletionTime(items, checked),
		Phases:        make([]phaseSummary, 0, len(h.catalog.Phases)),
	}
	if dest, ok := h.catalog.Destination(); ok {
		resp.Destination = &dest
	}
	for _, item := range items {
		if item.Priority == model.PriorityHigh && !checked.Has(item.ID) {
			resp.HighPriorityOpen++
		}
	}
	for _, p := range h.catalog.Phases {
		events := h.catalog.PhaseEvents(p.ID)
		resp.Phases = append(resp.Phases, phaseSummary{
			ID:          p.ID,
			Name:        p.Name,
			Events:      len(events),
			DrivingDays: stats.TypeCount(events, model.EventDrive),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
