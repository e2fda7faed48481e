package domain

import "time"

// FallbackCategory is returned by classification when no keyword matches.
const FallbackCategory = "General Support"

// UnassignedDepartment owns tickets whose category has no taxonomy entry.
const UnassignedDepartment = "Unassigned"

// CategoryConfig maps one ticket category to its owning department,
// sensitivity flag, and classification keywords. Position fixes iteration
// order so tie-breaking stays deterministic.
type CategoryConfig struct {
	ID               string
	Name             string
	OwningDepartment string
	Sensitive        bool
	Keywords         []string
	Position         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
