package handler

import (
	"fmt"
	"net/http"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/model"
)

type TimelineHandler struct {
	catalog *catalog.Catalog
}

func NewTimelineHandler(c *catalog.Catalog) *TimelineHandler {
	return &TimelineHandler{catalog: c}
}

func (h *TimelineHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.TimelineFilter{Phase: q.Get("phase"), Type: q.Get("type")}
	if f.Type != "" && f.Type != catalog.All && !model.EventType(f.Type).Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event type %q", f.Type))
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.FilterTimeline(f))
}

type phaseView struct {
	catalog.Phase
	Events int `json:"events"`
}

func (h *TimelineHandler) Phases(w http.ResponseWriter, r *http.Request) {
	views := make([]phaseView, 0, len(h.catalog.Phases))
	for _, p := range h.catalog.Phases {
		views = append(views, phaseView{Phase: p, Events: len(h.catalog.PhaseEvents(p.ID))})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *TimelineHandler) Route(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Route)
}
