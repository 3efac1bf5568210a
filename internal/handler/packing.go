package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/stats"
	"github.com/dukerupert/tripquest/internal/websocket"
)

type PackingHandler struct {
	broadcaster
	catalog  *catalog.Catalog
	progress *progress.Store
	ids      map[string]struct{}
	logger   *slog.Logger
}

func NewPackingHandler(c *catalog.Catalog, ps *progress.Store, hub *websocket.Hub, logger *slog.Logger) *PackingHandler {
	return &PackingHandler{
		broadcaster: broadcaster{hub: hub},
		catalog:     c,
		progress:    ps,
		ids:         c.PackingIDs(),
		logger:      logger,
	}
}

type packingEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

type packingCategoryView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Items    []packingEntry `json:"items"`
	Progress stats.Progress `json:"progress"`
}

type packingResponse struct {
	Categories []packingCategoryView `json:"categories"`
	Progress   stats.Progress        `json:"progress"`
}

func (h *PackingHandler) view(set progress.Set) packingResponse {
	resp := packingResponse{
		Categories: make([]packingCategoryView, 0, len(h.catalog.Packing)),
		Progress:   stats.PackingCompletion(h.catalog.Packing, set),
	}
	for _, cat := range h.catalog.Packing {
		v := packingCategoryView{
			ID:       cat.ID,
			Name:     cat.Name,
			Items:    make([]packingEntry, 0, len(cat.Items)),
			Progress: stats.PackingCompletion([]model.PackingCategory{cat}, set),
		}
		for _, item := range cat.Items {
			id := model.PackingItemID(cat.ID, item)
			v.Items = append(v.Items, packingEntry{ID: id, Name: item, Checked: set.Has(id)})
		}
		resp.Categories = append(resp.Categories, v)
	}
	return resp
}

func (h *PackingHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view(h.progress.Current()))
}

type packingToggleRequest struct {
	ID string `json:"id"`
}

func (h *PackingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req packingToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if _, ok := h.ids[req.ID]; !ok {
		writeError(w, http.StatusNotFound, "packing item not found")
		return
	}

	checked := h.progress.Toggle(req.ID)
	h.broadcast(websocket.ProgressToggled(h.progress.Key(), req.ID, checked))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       req.ID,
		"checked":  checked,
		"progress": stats.PackingCompletion(h.catalog.Packing, h.progress.Current()),
	})
}

func (h *PackingHandler) Import(w http.ResponseWriter, r *http.Request) {
	importInto(w, r, h.progress, h.broadcaster, h.logger, func(set progress.Set) any {
		return stats.PackingCompletion(h.catalog.Packing, set)
	})
}

func (h *PackingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	clearSlot(w, h.progress, h.broadcaster, h.logger)
}
