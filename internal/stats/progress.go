// Package stats derives summary numbers from the trip catalog and a set of
// completed checklist ids. Every function is pure: no clock, no storage.
package stats

import (
	"fmt"
	"math"

	"github.com/dukerupert/tripquest/internal/model"
)

// Checked is the read side of a progress set.
type Checked interface {
	Has(id string) bool
}

// Percent returns round(100*part/whole), or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Completion counts the catalog items present in checked.
func Completion(items []model.ChecklistItem, checked Checked) Progress {
	done := 0
	for _, item := range items {
		if checked.Has(item.ID) {
			done++
		}
	}
	return Progress{Completed: done, Total: len(items), Percentage: Percent(done, len(items))}
}

type XPProgress struct {
	Earned     int `json:"earned"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func XP(items []model.ChecklistItem, checked Checked) XPProgress {
	var earned, total int
	for _, item := range items {
		total += item.XP
		if checked.Has(item.ID) {
			earned += item.XP
		}
	}
	return XPProgress{Earned: earned, Total: total, Percentage: Percent(earned, total)}
}

type CategoryProgress struct {
	Category   model.Category `json:"category"`
	Name       string         `json:"name"`
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Percentage int            `json:"percentage"`
}

// CategoryBreakdown reports progress for each category present in items,
// in model.Categories order.
func CategoryBreakdown(items []model.ChecklistItem, checked Checked) []CategoryProgress {
	byCat := make(map[model.Category]*CategoryProgress)
	for _, item := range items {
		cp, ok := byCat[item.Category]
		if !ok {
			cp = &CategoryProgress{Category: item.Category, Name: item.Category.DisplayName()}
			byCat[item.Category] = cp
		}
		cp.Total++
		if checked.Has(item.ID) {
			cp.Completed++
		}
	}

	out := make([]CategoryProgress, 0, len(byCat))
	for _, cat := range model.Categories {
		cp, ok := byCat[cat]
		if !ok {
			continue
		}
		cp.Percentage = Percent(cp.Completed, cp.Total)
		out = append(out, *cp)
	}
	return out
}

// CompletedCategories counts categories at 100%.
func CompletedCategories(breakdown []CategoryProgress) int {
	n := 0
	for _, cp := range breakdown {
		if cp.Total > 0 && cp.Completed == cp.Total {
			n++
		}
	}
	return n
}

func PriorityCount(items []model.ChecklistItem, p model.Priority) int {
	n := 0
	for _, item := range items {
		if item.Priority == p {
			n++
		}
	}
	return n
}

func CategoryCount(items []model.ChecklistItem, c model.Category) int {
	n := 0
	for _, item := range items {
		if item.Category == c {
			n++
		}
	}
	return n
}

// Minutes of prep work assumed per remaining item.
const (
	HighPriorityMinutes  = 30
	OtherPriorityMinutes = 15
)

// EstimateCompletionTime guesses the remaining prep effort, e.g. "2h 15m" or "45m".
func EstimateCompletionTime(items []model.ChecklistItem, checked Checked) string {
	minutes := 0
	for _, item := range items {
		if checked.Has(item.ID) {
			continue
		}
		if item.Priority == model.PriorityHigh {
			minutes += HighPriorityMinutes
		} else {
			minutes += OtherPriorityMinutes
		}
	}
	return formatMinutes(minutes)
}

func formatMinutes(total int) string {
	h, m := total/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// PackingCompletion counts packed entries across all packing categories.
func PackingCompletion(categories []model.PackingCategory, checked Checked) Progress {
	var done, total int
	for _, cat := range categories {
		for _, item := range cat.Items {
			total++
			if checked.Has(model.PackingItemID(cat.ID, item)) {
				done++
			}
		}
	}
	return Progress{Completed: done, Total: total, Percentage: Percent(done, total)}
}
