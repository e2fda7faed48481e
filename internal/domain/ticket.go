package domain

import "time"

// TicketStatus enumerates lifecycle states for helpdesk tickets.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "Open"
	TicketStatusInProgress    TicketStatus = "In Progress"
	TicketStatusPendingVendor TicketStatus = "Pending Vendor"
	TicketStatusResolved      TicketStatus = "Resolved"
	TicketStatusClosed        TicketStatus = "Closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// Ticket is the aggregate for helpdesk requests. Sensitive is frozen at
// creation time from the category's taxonomy entry and never tracks later
// taxonomy edits. SLABreached is monotonic: once true it never resets.
type Ticket struct {
	ID             string
	ExternalKey    string
	Subject        string
	Description    string
	Category       string
	School         string
	Location       string
	Status         TicketStatus
	Priority       TicketPriority
	RequesterEmail string
	AssigneeID     *string
	Sensitive      bool
	SLADueAt       time.Time
	SLABreached    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
}

// IsTerminal reports whether the status ends SLA tracking.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}
