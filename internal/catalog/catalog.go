package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/tripquest/internal/model"
)

//go:embed trip.yaml
var defaultTrip []byte

// Trip holds the top-level facts about the journey.
type Trip struct {
	Name      string `json:"name" yaml:"name" validate:"required"`
	Departure string `json:"departure" yaml:"departure" validate:"required,datetime=2006-01-02"`
}

// Phase is a contiguous slice of the timeline. End <= 0 runs to the last event.
type Phase struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Name  string `json:"name" yaml:"name" validate:"required"`
	Start int    `json:"start" yaml:"start" validate:"gte=0"`
	End   int    `json:"end,omitempty" yaml:"end,omitempty"`
}

// Catalog is the static trip data. It is read-only once loaded.
type Catalog struct {
	Trip      Trip                    `json:"trip" yaml:"trip"`
	Phases    []Phase                 `json:"phases" yaml:"phases" validate:"dive"`
	Route     []model.RoutePoint      `json:"route" yaml:"route" validate:"dive"`
	Checklist []model.ChecklistItem   `json:"checklist" yaml:"checklist" validate:"dive"`
	Timeline  []model.TimelineEvent   `json:"timeline" yaml:"timeline" validate:"dive"`
	Packing   []model.PackingCategory `json:"packing" yaml:"packing" validate:"dive"`

	items map[string]int
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultTrip)
}

// Load reads and validates a catalog file. An empty path yields the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data and validates it. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

// Validate checks struct constraints, closed enums and cross-record rules.
func (c *Catalog) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	errs = append(errs, uniqueIDs("checklist item", len(c.Checklist), func(i int) string { return c.Checklist[i].ID })...)
	errs = append(errs, uniqueIDs("timeline event", len(c.Timeline), func(i int) string { return c.Timeline[i].ID })...)
	errs = append(errs, uniqueIDs("packing category", len(c.Packing), func(i int) string { return c.Packing[i].ID })...)
	errs = append(errs, uniqueIDs("phase", len(c.Phases), func(i int) string { return c.Phases[i].ID })...)

	for _, p := range c.Phases {
		end := p.End
		if end <= 0 {
			end = len(c.Timeline)
		}
		if p.Start > end || end > len(c.Timeline) {
			errs = append(errs, fmt.Errorf("phase %q: range [%d,%d) outside timeline of %d events", p.ID, p.Start, end, len(c.Timeline)))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

func uniqueIDs(kind string, n int, id func(int) string) []error {
	var errs []error
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if seen[v] {
			errs = append(errs, fmt.Errorf("duplicate %s id %q", kind, v))
		}
		seen[v] = true
	}
	return errs
}

func (c *Catalog) index() {
	c.items = make(map[string]int, len(c.Checklist))
	for i, item := range c.Checklist {
		c.items[item.ID] = i
	}
}

// Item looks up a checklist item by id.
func (c *Catalog) Item(id string) (model.ChecklistItem, bool) {
	i, ok := c.items[id]
	if !ok {
		return model.ChecklistItem{}, false
	}
	return c.Checklist[i], true
}

// HasItem reports whether id names a checklist item.
func (c *Catalog) HasItem(id string) bool {
	_, ok := c.items[id]
	return ok
}

// PackingIDs returns the set of valid packing progress ids.
func (c *Catalog) PackingIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, cat := range c.Packing {
		for _, item := range cat.Items {
			ids[model.PackingItemID(cat.ID, item)] = struct{}{}
		}
	}
	return ids
}

// PackingTotal is the number of entries across all packing categories.
func (c *Catalog) PackingTotal() int {
	n := 0
	for _, cat := range c.Packing {
		n += len(cat.Items)
	}
	return n
}

// DepartureDate parses Trip.Departure.
func (c *Catalog) DepartureDate() (time.Time, error) {
	t, err := time.Parse(model.DateLayout, c.Trip.Departure)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse departure: %w", err)
	}
	return t, nil
}

// Destination returns the first route point of type destination.
func (c *Catalog) Destination() (model.RoutePoint, bool) {
	for _, p := range c.Route {
		if p.Type == model.RouteDestination {
			return p, true
		}
	}
	return model.RoutePoint{}, false
}
