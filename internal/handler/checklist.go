package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/stats"
	"github.com/dukerupert/tripquest/internal/websocket"
)

// Import modes.
const (
	ModeReplace = "replace"
	ModeMerge   = "merge"
)

type ChecklistHandler struct {
	broadcaster
	catalog  *catalog.Catalog
	progress *progress.Store
	now      func() time.Time
	logger   *slog.Logger
}

func NewChecklistHandler(c *catalog.Catalog, ps *progress.Store, hub *websocket.Hub, logger *slog.Logger) *ChecklistHandler {
	return &ChecklistHandler{
		broadcaster: broadcaster{hub: hub},
		catalog:     c,
		progress:    ps,
		now:         time.Now,
		logger:      logger,
	}
}

type itemView struct {
	model.ChecklistItem
	Checked bool `json:"checked"`
}

func (h *ChecklistHandler) Items(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.ChecklistFilter{
		Category: q.Get("category"),
		Priority: q.Get("priority"),
		Query:    q.Get("q"),
	}
	if f.Category != "" && f.Category != catalog.All && !model.Category(f.Category).Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", f.Category))
		return
	}
	if f.Priority != "" && f.Priority != catalog.All && !model.Priority(f.Priority).Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown priority %q", f.Priority))
		return
	}

	checked := h.progress.Current()
	items := catalog.FilterChecklist(h.catalog.Checklist, f)
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView{ChecklistItem: item, Checked: checked.Has(item.ID)})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ChecklistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, ok := h.catalog.Item(id)
	if !ok {
		writeError(w, http.StatusNotFound, "checklist item not found")
		return
	}

	checked := h.progress.Toggle(id)
	h.broadcast(websocket.ProgressToggled(h.progress.Key(), id, checked))

	set := h.progress.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"checked":  checked,
		"xp":       item.XP,
		"progress": stats.Completion(h.catalog.Checklist, set),
		"xp_total": stats.XP(h.catalog.Checklist, set),
	})
}

type progressResponse struct {
	Completion          stats.Progress           `json:"completion"`
	XP                  stats.XPProgress         `json:"xp"`
	Categories          []stats.CategoryProgress `json:"categories"`
	CompletedCategories int                      `json:"completed_categories"`
	HighPriorityTotal   int                      `json:"high_priority_total"`
	RemainingTime       string                   `json:"remaining_time"`
	CheckedItems        []string                 `json:"checked_items"`
	CompletionDate      *time.Time               `json:"completion_date,omitempty"`
}

func (h *ChecklistHandler) summarize(set progress.Set) progressResponse {
	items := h.catalog.Checklist
	breakdown := stats.CategoryBreakdown(items, set)
	resp := progressResponse{
		Completion:          stats.Completion(items, set),
		XP:                  stats.XP(items, set),
		Categories:          breakdown,
		CompletedCategories: stats.CompletedCategories(breakdown),
		HighPriorityTotal:   stats.PriorityCount(items, model.PriorityHigh),
		RemainingTime:       stats.EstimateCompletionTime(items, set),
		CheckedItems:        set.Sorted(),
	}
	if snap := h.progress.Snapshot(); snap.Stats != nil {
		resp.CompletionDate = snap.Stats.CompletionDate
	}
	return resp
}

func (h *ChecklistHandler) Progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.summarize(h.progress.Current()))
}

func (h *ChecklistHandler) Export(w http.ResponseWriter, r *http.Request) {
	text, err := h.progress.Export(h.progress.Current())
	if err != nil {
		h.logger.Error("export checklist", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export progress")
		return
	}

	filename := fmt.Sprintf("%s-%s.json", h.progress.Key(), h.now().Format(model.DateLayout))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// Import restores an exported snapshot from the request body. mode=replace
// (default) overwrites the live set; mode=merge adds to it.
func (h *ChecklistHandler) Import(w http.ResponseWriter, r *http.Request) {
	importInto(w, r, h.progress, h.broadcaster, h.logger, func(set progress.Set) any {
		return h.summarize(set)
	})
}

func (h *ChecklistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	clearSlot(w, h.progress, h.broadcaster, h.logger)
}

// importInto is shared by every slot that accepts snapshot imports.
func importInto(w http.ResponseWriter, r *http.Request, ps *progress.Store, b broadcaster, logger *slog.Logger, view func(progress.Set) any) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = ModeReplace
	}
	if mode != ModeReplace && mode != ModeMerge {
		writeError(w, http.StatusBadRequest, "mode must be replace or merge")
		return
	}

	text, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imported, err := ps.Import(text)
	switch {
	case errors.Is(err, progress.ErrSchemaVersionMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, progress.ErrMalformedPayload):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Error("import", "slot", ps.Key(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import progress")
		return
	}

	var set progress.Set
	if mode == ModeMerge {
		set, err = ps.Merge(imported)
	} else {
		err = ps.Save(imported)
		set = ps.Current()
	}
	persisted := true
	if err != nil {
		logger.Warn("import not persisted", "slot", ps.Key(), "error", err)
		persisted = false
	}

	b.broadcast(websocket.ProgressImported(ps.Key(), mode, set.Len()))
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":      mode,
		"imported":  imported.Len(),
		"persisted": persisted,
		"progress":  view(set),
	})
}

func clearSlot(w http.ResponseWriter, ps *progress.Store, b broadcaster, logger *slog.Logger) {
	if err := ps.Clear(); err != nil {
		logger.Error("clear", "slot", ps.Key(), "error", err)
		writeError(w, http.StatusServiceUnavailable, "failed to clear saved progress")
		return
	}
	b.broadcast(websocket.ProgressCleared(ps.Key()))
	w.WriteHeader(http.StatusNoContent)
}
