// Package catalog loads the vocabulary catalog from a YAML file.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"gopkg.in/yaml.v3"
)

type file struct {
	Items []domain.VocabularyItem `yaml:"items"`
}

// Catalog is an immutable in-memory catalog; file order is catalog order
type Catalog struct {
	items []domain.VocabularyItem
	byID  map[string]int
}

// Load reads and validates a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Items)
}

// New builds a catalog, rejecting blank or duplicate identifiers
func New(items []domain.VocabularyItem) (*Catalog, error) {
	c := &Catalog{
		items: make([]domain.VocabularyItem, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}

	for i, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			return nil, fmt.Errorf("catalog item %d: id is required", i)
		}
		if strings.TrimSpace(it.Term) == "" {
			return nil, fmt.Errorf("catalog item %q: term is required", it.ID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("catalog item %q: duplicate id", it.ID)
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}

	return c, nil
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of all items in catalog order
func (c *Catalog) Items() []domain.VocabularyItem {
	out := make([]domain.VocabularyItem, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns one item
func (c *Catalog) Get(_ context.Context, vocabularyID string) (*domain.VocabularyItem, error) {
	i, ok := c.byID[vocabularyID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it := c.items[i]
	return &it, nil
}

// List returns items matching any of levels, in catalog order
func (c *Catalog) List(_ context.Context, levels []string) ([]domain.VocabularyItem, error) {
	out := make([]domain.VocabularyItem, 0, len(c.items))
	for _, it := range c.items {
		if it.MatchesLevel(levels) {
			out = append(out, it)
		}
	}
	return out, nil
}

var _ repository.VocabularyRepository = (*Catalog)(nil)
