package model

import "time"

// ChecklistStats is the optional achievement block of a persisted snapshot.
type ChecklistStats struct {
	TotalXP        int        `json:"totalXP"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
}

// PersistedChecklist is the durable representation of checklist progress.
type PersistedChecklist struct {
	Version      string          `json:"version"`
	CheckedItems []string        `json:"checkedItems"`
	LastUpdated  time.Time       `json:"lastUpdated"`
	Stats        *ChecklistStats `json:"stats,omitempty"`
}
