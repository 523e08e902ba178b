package query

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/jqlboard/internal/log"
)

// IDGenerator produces identifiers for custom catalog entries.
type IDGenerator func() string

// CustomIDs returns the default IDGenerator: "custom_" followed by a UUIDv7,
// so two entries created in the same second never collide.
func CustomIDs() IDGenerator {
	return func() string {
		return "custom_" + uuid.Must(uuid.NewV7()).String()
	}
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithIDGenerator overrides how custom entry ids are generated.
func WithIDGenerator(gen IDGenerator) CatalogOption {
	return func(c *Catalog) { c.newID = gen }
}

// WithCatalogClock sets the clock used to stamp CreatedAt.
func WithCatalogClock(clock Clock) CatalogOption {
	return func(c *Catalog) { c.clock = clock }
}

// WithoutPredefined starts the catalog empty.
func WithoutPredefined() CatalogOption {
	return func(c *Catalog) { c.skipPredefined = true }
}

// Catalog stores query definitions in insertion order. It is safe for
// concurrent use; definitions are returned by value.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]Definition
	order []string

	newID          IDGenerator
	clock          Clock
	skipPredefined bool
}

// NewCatalog returns a catalog preloaded with Predefined entries.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		byID:  make(map[string]Definition),
		newID: CustomIDs(),
		clock: RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.skipPredefined {
		now := c.clock.Now()
		for _, def := range Predefined() {
			def.CreatedAt = now
			if err := c.Register(def); err != nil {
				// Predefined entries are static; a failure here is a programming error.
				panic(err)
			}
		}
	}
	return c
}

// Register inserts def, or overwrites the entry with the same id in place.
func (c *Catalog) Register(def Definition) error {
	def, err := normalize(def)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(def)
	return nil
}

func (c *Catalog) put(def Definition) {
	if _, exists := c.byID[def.ID]; !exists {
		c.order = append(c.order, def.ID)
	}
	c.byID[def.ID] = def
}

func normalize(def Definition) (Definition, error) {
	def = def.clone()
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return def, fmt.Errorf("%w: id is required", ErrInvalidQuery)
	}
	if strings.TrimSpace(def.JQL) == "" {
		return def, fmt.Errorf("%w: %s has no JQL", ErrInvalidQuery, def.ID)
	}
	if def.Category == "" {
		def.Category = CategoryCustom
	}
	if !def.Category.Valid() {
		return def, fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, def.Category)
	}
	if def.MaxResults <= 0 {
		def.MaxResults = DefaultMaxResults
	}
	return def, nil
}

// Get returns the definition with id.
func (c *Catalog) Get(id string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// All returns every definition in insertion order.
func (c *Catalog) All() []Definition {
	return c.filter(func(Definition) bool { return true })
}

// ListByCategory returns the definitions in cat, in insertion order.
func (c *Catalog) ListByCategory(cat Category) []Definition {
	return c.filter(func(d Definition) bool { return d.Category == cat })
}

// ListByTag returns the definitions carrying tag exactly.
func (c *Catalog) ListByTag(tag string) []Definition {
	return c.filter(func(d Definition) bool { return d.HasTag(tag) })
}

// Search matches term case-insensitively against name, description and
// tags. An empty term matches everything.
func (c *Catalog) Search(term string) []Definition {
	term = strings.ToLower(term)
	return c.filter(func(d Definition) bool {
		if strings.Contains(strings.ToLower(d.Name), term) ||
			strings.Contains(strings.ToLower(d.Description), term) {
			return true
		}
		return slices.ContainsFunc(d.Tags, func(tag string) bool {
			return strings.Contains(strings.ToLower(tag), term)
		})
	})
}

func (c *Catalog) filter(keep func(Definition) bool) []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []Definition{}
	for _, id := range c.order {
		if def := c.byID[id]; keep(def) {
			out = append(out, def.clone())
		}
	}
	return out
}

// AddCustom stores a new custom entry and returns its generated id.
func (c *Catalog) AddCustom(q CustomQuery) (string, error) {
	if strings.TrimSpace(q.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidQuery)
	}

	def, err := normalize(Definition{
		ID:          c.newID(),
		Name:        strings.TrimSpace(q.Name),
		Description: q.Description,
		JQL:         q.JQL,
		MaxResults:  q.MaxResults,
		Category:    CategoryCustom,
		Tags:        q.Tags,
		CreatedAt:   c.clock.Now(),
	})
	if err != nil {
		return "", err
	}
	if def.Tags == nil {
		def.Tags = []string{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[def.ID]; exists {
		return "", fmt.Errorf("%w: id %s already exists", ErrInvalidQuery, def.ID)
	}
	c.put(def)

	log.Info(log.CatCatalog, "custom query added", "id", def.ID, "name", def.Name)
	return def.ID, nil
}

// RemoveCustom deletes id if it exists and is a custom entry.
func (c *Catalog) RemoveCustom(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	def, ok := c.byID[id]
	if !ok || def.Category != CategoryCustom {
		return false
	}
	c.remove(id)

	log.Info(log.CatCatalog, "custom query removed", "id", id)
	return true
}

func (c *Catalog) remove(id string) {
	delete(c.byID, id)
	c.order = slices.DeleteFunc(c.order, func(x string) bool { return x == id })
}

// LoadCustom replaces every custom entry with defs. Nothing changes when
// any of defs is invalid.
func (c *Catalog) LoadCustom(defs []Definition) error {
	normalized := make([]Definition, 0, len(defs))
	now := c.clock.Now()
	for _, def := range defs {
		def.Category = CategoryCustom
		if def.CreatedAt.IsZero() {
			def.CreatedAt = now
		}
		n, err := normalize(def)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range slices.Clone(c.order) {
		if c.byID[id].Category == CategoryCustom {
			c.remove(id)
		}
	}
	for _, def := range normalized {
		if existing, ok := c.byID[def.ID]; ok && existing.Category != CategoryCustom {
			log.Warn(log.CatCatalog, "custom query shadows predefined id, skipping", "id", def.ID)
			continue
		}
		c.put(def)
	}

	log.Debug(log.CatCatalog, "custom queries loaded", "count", len(normalized))
	return nil
}

// Custom returns the custom entries in insertion order.
func (c *Catalog) Custom() []Definition {
	return c.ListByCategory(CategoryCustom)
}

// Categories returns the distinct categories in use, sorted.
func (c *Catalog) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[Category]struct{})
	for _, def := range c.byID {
		seen[def.Category] = struct{}{}
	}
	out := make([]Category, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	slices.Sort(out)
	return out
}

// Tags returns every distinct tag, sorted.
func (c *Catalog) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, def := range c.byID {
		for _, tag := range def.Tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// CountByCategory returns the number of entries per category.
func (c *Catalog) CountByCategory() map[Category]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[Category]int)
	for _, def := range c.byID {
		counts[def.Category]++
	}
	return counts
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
