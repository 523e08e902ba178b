package query

import (
	"slices"
	"time"
)

// DefaultMaxResults is used when a definition does not set a positive limit.
const DefaultMaxResults = 100

// AdhocQueryID identifies free-form JQL run outside the catalog.
const AdhocQueryID = "adhoc"

// Category groups catalog entries.
type Category string

const (
	CategoryBasic       Category = "basic"
	CategoryManagement  Category = "management"
	CategoryMaintenance Category = "maintenance"
	CategoryUniversity  Category = "university"
	CategoryAnalysis    Category = "analysis"
	CategoryCustom      Category = "custom"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryBasic,
	CategoryManagement,
	CategoryMaintenance,
	CategoryUniversity,
	CategoryAnalysis,
	CategoryCustom,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Definition is a named, categorised JQL query.
type Definition struct {
	ID          string
	Name        string
	Description string
	JQL         string
	MaxResults  int
	Category    Category
	Tags        []string
	CreatedAt   time.Time
}

// HasTag reports whether d carries tag exactly.
func (d Definition) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

func (d Definition) clone() Definition {
	d.Tags = slices.Clone(d.Tags)
	return d
}

// CustomQuery is the user input for a new custom catalog entry.
type CustomQuery struct {
	Name        string
	Description string
	JQL         string
	MaxResults  int
	Tags        []string
}
