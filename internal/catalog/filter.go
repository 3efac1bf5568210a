package catalog

import (
	"strings"

	"github.com/dukerupert/tripquest/internal/model"
)

// All disables a filter dimension.
const All = "all"

func matchesDimension(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// ChecklistFilter selects checklist items by category, priority and free text.
type ChecklistFilter struct {
	Category string
	Priority string
	Query    string
}

// Match reports whether item satisfies every dimension of the filter.
// The query is a case-insensitive substring match on title or description.
func (f ChecklistFilter) Match(item model.ChecklistItem) bool {
	if !matchesDimension(f.Category, string(item.Category)) {
		return false
	}
	if !matchesDimension(f.Priority, string(item.Priority)) {
		return false
	}
	q := strings.ToLower(f.Query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Title), q) ||
		strings.Contains(strings.ToLower(item.Description), q)
}

// FilterChecklist returns the items matching f, in catalog order.
func FilterChecklist(items []model.ChecklistItem, f ChecklistFilter) []model.ChecklistItem {
	out := make([]model.ChecklistItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// TimelineFilter selects timeline events by phase and type.
type TimelineFilter struct {
	Phase string
	Type  string
}

// PhaseEvents returns the events of the named phase. Unknown phases and
// "all" return the whole timeline.
func (c *Catalog) PhaseEvents(id string) []model.TimelineEvent {
	for _, p := range c.Phases {
		if p.ID != id {
			continue
		}
		end := p.End
		if end <= 0 {
			end = len(c.Timeline)
		}
		return c.Timeline[p.Start:end]
	}
	return c.Timeline
}

// FilterTimeline applies a phase then a type filter.
func (c *Catalog) FilterTimeline(f TimelineFilter) []model.TimelineEvent {
	events := c.PhaseEvents(f.Phase)
	out := make([]model.TimelineEvent, 0, len(events))
	for _, e := range events {
		if matchesDimension(f.Type, string(e.Type)) {
			out = append(out, e)
		}
	}
	return out
}
