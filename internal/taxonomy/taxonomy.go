// Package taxonomy holds the category keyword taxonomy and the free-text
// classifier that assigns intake descriptions to a category.
package taxonomy

import "github.com/spec-kit/district-helpdesk/internal/domain"

// Taxonomy is an ordered collection of category configs. Order is
// significant: classification tie-breaks keep the first category seen, so
// callers must construct taxonomies in declared (position) order.
type Taxonomy struct {
	categories []domain.CategoryConfig
	byName     map[string]int
}

// New builds a taxonomy preserving the given category order. A duplicate
// name keeps the earlier entry for lookups.
func New(categories []domain.CategoryConfig) *Taxonomy {
	t := &Taxonomy{
		categories: make([]domain.CategoryConfig, len(categories)),
		byName:     make(map[string]int, len(categories)),
	}
	copy(t.categories, categories)
	for i, cat := range t.categories {
		if _, exists := t.byName[cat.Name]; !exists {
			t.byName[cat.Name] = i
		}
	}
	return t
}

// Categories returns the configs in declared order.
func (t *Taxonomy) Categories() []domain.CategoryConfig {
	return t.categories
}

// Lookup returns the config for a category name.
func (t *Taxonomy) Lookup(name string) (domain.CategoryConfig, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return domain.CategoryConfig{}, false
	}
	return t.categories[idx], true
}

// OwningDepartment resolves a category to its owning department, defaulting
// to Unassigned when the category has no taxonomy entry.
func (t *Taxonomy) OwningDepartment(category string) string {
	if cat, ok := t.Lookup(category); ok {
		return cat.OwningDepartment
	}
	return domain.UnassignedDepartment
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int {
	return len(t.categories)
}
