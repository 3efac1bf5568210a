package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/tripquest/internal/model"
)

// ParseDistance reads the leading integer of a label like "~220 km".
// Labels without one, including the empty string, count as 0.
func ParseDistance(label string) int {
	s := strings.Replace(label, "~", "", 1)
	s = strings.Replace(s, " km", "", 1)
	n, ok := leadingNumber(s, false)
	if !ok {
		return 0
	}
	return int(n)
}

// TripDistance sums ParseDistance over every event's drive distance.
func TripDistance(events []model.TimelineEvent) int {
	total := 0
	for _, e := range events {
		total += ParseDistance(e.DriveDistance)
	}
	return total
}

// DriveHours sums the leading number of every drive time label.
// "~6-7 hrs total" counts as 6.
func DriveHours(events []model.TimelineEvent) float64 {
	var total float64
	for _, e := range events {
		if n, ok := leadingNumber(strings.Replace(e.DriveTime, "~", "", 1), true); ok {
			total += n
		}
	}
	return total
}

// leadingNumber parses an optionally signed number at the start of s,
// after leading whitespace. Fractions are accepted only when frac is set.
func leadingNumber(s string, frac bool) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if frac && end < len(s) && s[end] == '.' {
		j := end + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > end+1 {
			digits += j - end - 1
			end = j
		}
	}
	if digits == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Default cost rates, in whole currency units.
const (
	DefaultNightlyRate      = 80
	DefaultDailyFoodRate    = 60
	DefaultActivitiesBudget = 500
	DefaultCurrency         = "EUR"
)

type Rates struct {
	Nightly    int    `json:"nightly"`
	DailyFood  int    `json:"daily_food"`
	Activities int    `json:"activities"`
	Currency   string `json:"currency"`
}

func DefaultRates() Rates {
	return Rates{
		Nightly:    DefaultNightlyRate,
		DailyFood:  DefaultDailyFoodRate,
		Activities: DefaultActivitiesBudget,
		Currency:   DefaultCurrency,
	}
}

type Cost struct {
	Accommodation int    `json:"accommodation"`
	Food          int    `json:"food"`
	Activities    int    `json:"activities"`
	Total         int    `json:"total"`
	Currency      string `json:"currency"`
}

// EstimatedCost budgets a trip of totalDays days: one night fewer than days,
// food every day, plus the flat activities budget.
func EstimatedCost(totalDays int, r Rates) Cost {
	if totalDays < 0 {
		totalDays = 0
	}
	c := Cost{
		Accommodation: nights(totalDays) * r.Nightly,
		Food:          totalDays * r.DailyFood,
		Activities:    r.Activities,
		Currency:      r.Currency,
	}
	c.Total = c.Accommodation + c.Food + c.Activities
	return c
}

func nights(days int) int {
	if days <= 1 {
		return 0
	}
	return days - 1
}

// DaysUntilDeparture is the ceiling of the day difference, never negative.
func DaysUntilDeparture(departure, today time.Time) int {
	days := math.Ceil(departure.Sub(today).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

type TripStats struct {
	TotalDistance       int    `json:"total_distance"`
	TotalDriveTime      string `json:"total_drive_time"`
	TotalDays           int    `json:"total_days"`
	DrivingDays         int    `json:"driving_days"`
	FamilyDays          int    `json:"family_days"`
	AccommodationNights int    `json:"accommodation_nights"`
	ActivitiesCount     int    `json:"activities_count"`
	EstimatedCost       Cost   `json:"estimated_cost"`
}

// Summary aggregates the whole timeline.
func Summary(events []model.TimelineEvent, r Rates) TripStats {
	days := len(events)
	s := TripStats{
		TotalDistance:       TripDistance(events),
		TotalDriveTime:      fmt.Sprintf("~%s hours", strconv.FormatFloat(DriveHours(events), 'f', -1, 64)),
		TotalDays:           days,
		DrivingDays:         TypeCount(events, model.EventDrive),
		FamilyDays:          TypeCount(events, model.EventJoint, model.EventXmas),
		AccommodationNights: nights(days),
		EstimatedCost:       EstimatedCost(days, r),
	}
	for _, e := range events {
		if len(e.Details.Activities) > 0 {
			s.ActivitiesCount++
		}
	}
	return s
}

// TypeCount counts events whose type is any of types.
func TypeCount(events []model.TimelineEvent, types ...model.EventType) int {
	n := 0
	for _, e := range events {
		for _, t := range types {
			if e.Type == t {
				n++
				break
			}
		}
	}
	return n
}
