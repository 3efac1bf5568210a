package model

import "time"

// DateLayout is the calendar date format used by the catalog.
const DateLayout = "2006-01-02"

type EventType string

const (
	EventDrive   EventType = "drive"
	EventDad     EventType = "dad"
	EventMom     EventType = "mom"
	EventJoint   EventType = "joint"
	EventXmas    EventType = "xmas"
	EventSpecial EventType = "special"
)

var EventTypes = []EventType{EventDrive, EventDad, EventMom, EventJoint, EventXmas, EventSpecial}

func (t EventType) Valid() bool {
	switch t {
	case EventDrive, EventDad, EventMom, EventJoint, EventXmas, EventSpecial:
		return true
	}
	return false
}

type EventDetails struct {
	Plan       string   `json:"plan,omitempty" yaml:"plan,omitempty"`
	Activities []string `json:"activities,omitempty" yaml:"activities,omitempty"`
	Food       string   `json:"food,omitempty" yaml:"food,omitempty"`
	Sleep      string   `json:"sleep,omitempty" yaml:"sleep,omitempty"`
	Notes      string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	ToddlerOps string   `json:"toddlerOps,omitempty" yaml:"toddlerOps,omitempty"`
}

type Location struct {
	Name string  `json:"name" yaml:"name" validate:"required"`
	Lat  float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Lng  float64 `json:"lng" yaml:"lng" validate:"longitude"`
}

type TimelineEvent struct {
	ID            string       `json:"id" yaml:"id" validate:"required"`
	Date          string       `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Day           string       `json:"day" yaml:"day"`
	Title         string       `json:"title" yaml:"title" validate:"required"`
	Type          EventType    `json:"type" yaml:"type" validate:"event_type"`
	DriveTime     string       `json:"driveTime,omitempty" yaml:"driveTime,omitempty"`
	DriveDistance string       `json:"driveDistance,omitempty" yaml:"driveDistance,omitempty"`
	Details       EventDetails `json:"details" yaml:"details"`
	Location      *Location    `json:"location,omitempty" yaml:"location,omitempty" validate:"omitempty"`
}

// Time parses Date. Catalog validation guarantees the layout.
func (e TimelineEvent) Time() (time.Time, error) {
	return time.Parse(DateLayout, e.Date)
}

type RoutePointType string

const (
	RouteStart       RoutePointType = "start"
	RouteStopover    RoutePointType = "stopover"
	RouteDestination RoutePointType = "destination"
	RouteReturn      RoutePointType = "return"
)

func (t RoutePointType) Valid() bool {
	switch t {
	case RouteStart, RouteStopover, RouteDestination, RouteReturn:
		return true
	}
	return false
}

type RoutePoint struct {
	Name string         `json:"name" yaml:"name" validate:"required"`
	Lat  float64        `json:"lat" yaml:"lat" validate:"latitude"`
	Lng  float64        `json:"lng" yaml:"lng" validate:"longitude"`
	Date string         `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Type RoutePointType `json:"type" yaml:"type" validate:"route_type"`
}
