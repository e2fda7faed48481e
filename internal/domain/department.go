package domain

import "time"

// Department represents a district team that owns ticket categories.
// TeamEmail receives SLA-breach escalations for the department's tickets.
type Department struct {
	ID        string
	Name      string
	TeamEmail string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
