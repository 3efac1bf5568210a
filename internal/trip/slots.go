package trip

import (
	"log/slog"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/stats"
)

// ChecklistOptions configures the checklist slot: ids outside the catalog are
// dropped and saves carry the XP and completion stats block.
func ChecklistOptions(c *catalog.Catalog) progress.Options {
	return progress.Options{
		Key:   progress.ChecklistKey,
		Known: c.HasItem,
		Score: func(set progress.Set) (int, bool) {
			completion := stats.Completion(c.Checklist, set)
			return stats.XP(c.Checklist, set).Earned, completion.Total > 0 && completion.Completed == completion.Total
		},
	}
}

// PackingOptions configures the packing slot.
func PackingOptions(c *catalog.Catalog) progress.Options {
	ids := c.PackingIDs()
	return progress.Options{
		Key: progress.PackingKey,
		Known: func(id string) bool {
			_, ok := ids[id]
			return ok
		},
	}
}

// OpenSlots builds the checklist and packing stores on storage and loads
// their persisted snapshots.
func OpenSlots(storage progress.Storage, c *catalog.Catalog, logger *slog.Logger) (checklist, packing *progress.Store) {
	checklist = progress.New(storage, logger, ChecklistOptions(c))
	packing = progress.New(storage, logger, PackingOptions(c))
	checklist.Load()
	packing.Load()
	return checklist, packing
}
