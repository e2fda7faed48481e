package domain

import "time"

// Article is a knowledge-base entry offered to requesters before a ticket
// is created. Triggers is an ordered sequence; first containment match wins.
type Article struct {
	ID        string
	Title     string
	Content   string
	Category  string
	Triggers  []string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
