package model

// Category groups checklist items on the checklist page.
type Category string

const (
	CategoryAccommodation Category = "accommodation"
	CategorySnowboarding  Category = "snowboarding"
	CategoryActivities    Category = "activities"
	CategoryTravel        Category = "travel"
	CategoryDocuments     Category = "documents"
	CategoryToddler       Category = "toddler"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAccommodation,
	CategorySnowboarding,
	CategoryActivities,
	CategoryTravel,
	CategoryDocuments,
	CategoryToddler,
}

var categoryNames = map[Category]string{
	CategoryAccommodation: "Accommodation",
	CategorySnowboarding:  "Snowboarding & Gear",
	CategoryActivities:    "Activities & Tickets",
	CategoryTravel:        "Travel Essentials",
	CategoryDocuments:     "Apps & Documents",
	CategoryToddler:       "Toddler Essentials",
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// DisplayName returns the human-readable label, or the raw value if unknown.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type BookingLink struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	URL         string `json:"url" yaml:"url" validate:"required,url"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type ChecklistItem struct {
	ID           string        `json:"id" yaml:"id" validate:"required"`
	Title        string        `json:"title" yaml:"title" validate:"required"`
	Description  string        `json:"description" yaml:"description"`
	Category     Category      `json:"category" yaml:"category" validate:"category"`
	XP           int           `json:"xp" yaml:"xp" validate:"gt=0"`
	Priority     Priority      `json:"priority" yaml:"priority" validate:"priority"`
	BookingLinks []BookingLink `json:"bookingLinks,omitempty" yaml:"bookingLinks,omitempty" validate:"omitempty,dive"`
	Notes        string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Icon         string        `json:"icon,omitempty" yaml:"icon,omitempty"`
}
