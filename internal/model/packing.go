package model

// PackingCategory is a named group of packing list entries.
type PackingCategory struct {
	ID    string   `json:"id" yaml:"id" validate:"required"`
	Name  string   `json:"name" yaml:"name" validate:"required"`
	Items []string `json:"items" yaml:"items" validate:"min=1,dive,required"`
}

// PackingItemID returns the progress id for one entry of a packing category.
func PackingItemID(categoryID, item string) string {
	return categoryID + "-" + item
}
