// Package catalog holds the fixed, ordered set of categories an entry can
// be tagged with. A Catalog is built once at start and never changes.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ledger/internal/core"
)

var (
	ErrEmptyCatalog   = errors.New("catalog has no categories")
	ErrDuplicateValue = errors.New("duplicate category value")
)

// Catalog is an immutable ordered list of categories keyed by Value.
type Catalog struct {
	items []core.Category
	index map[string]int
}

// fileFormat is the YAML layout accepted by LoadFile.
type fileFormat struct {
	Categories []core.Category `yaml:"categories"`
}

// New copies cats into a Catalog. Values are trimmed and must be unique.
func New(cats []core.Category) (*Catalog, error) {
	if len(cats) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		items: make([]core.Category, 0, len(cats)),
		index: make(map[string]int, len(cats)),
	}
	for i, cat := range cats {
		cat.Value = strings.TrimSpace(cat.Value)
		if err := cat.Validate(); err != nil {
			return nil, fmt.Errorf("category %d: %w", i, err)
		}
		if _, ok := c.index[cat.Value]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateValue, cat.Value)
		}
		c.index[cat.Value] = len(c.items)
		c.items = append(c.items, cat)
	}
	return c, nil
}

// Builtin returns the default catalog. Salary comes first and therefore
// acts as the fallback category.
func Builtin() *Catalog {
	c, err := New([]core.Category{
		{Value: "salary", Label: "Salary", Color: "#4caf50", Icon: "💰"},
		{Value: "food", Label: "Food", Color: "#ff9800", Icon: "🍔"},
		{Value: "transport", Label: "Transport", Color: "#03a9f4", Icon: "🚗"},
		{Value: "shopping", Label: "Shopping", Color: "#e91e63", Icon: "🛍️"},
		{Value: "subscriptions", Label: "Subscriptions", Color: "#9163CD", Icon: "🔁"},
		{Value: "utilities", Label: "Utilities", Color: "#9EB1CF", Icon: "🚰"},
		{Value: "paybills", Label: "Pay Bill's", Color: "#DB0032", Icon: "🧾"},
	})
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file of the form
//
//	categories:
//	  - value: salary
//	    label: Salary
//	    color: "#4caf50"
//	    icon: "💰"
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	return New(f.Categories)
}

// Lookup finds the category with exactly the given value.
func (c *Catalog) Lookup(value string) (core.Category, bool) {
	i, ok := c.index[value]
	if !ok {
		return core.Category{}, false
	}
	return c.items[i], true
}

// Default returns the first category.
func (c *Catalog) Default() core.Category {
	return c.items[0]
}

// Resolve is Lookup with Default as the fallback for unknown values.
func (c *Catalog) Resolve(value string) core.Category {
	if cat, ok := c.Lookup(value); ok {
		return cat
	}
	return c.Default()
}

// All returns the categories in catalog order. The slice is a copy.
func (c *Catalog) All() []core.Category {
	return append([]core.Category(nil), c.items...)
}

func (c *Catalog) Len() int {
	return len(c.items)
}
