package dto

import (
	"time"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

// TicketListQuery captures the staff listing facets from query params.
type TicketListQuery struct {
	Status   string `query:"status"`
	Category string `query:"category"`
	School   string `query:"school"`
	Search   string `query:"search"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

// TicketSummary is one row in the staff queue.
type TicketSummary struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"external_key"`
	Subject     string                `json:"subject"`
	Category    string                `json:"category"`
	School      string                `json:"school"`
	Location    string                `json:"location,omitempty"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Sensitive   bool                  `json:"sensitive"`
	SLADueAt    time.Time             `json:"sla_due_at"`
	SLABreached bool                  `json:"sla_breached"`
	CreatedAt   time.Time             `json:"created_at"`
}

// TicketDetailResponse provides full ticket info plus the audit trail.
type TicketDetailResponse struct {
	ID             string                `json:"id"`
	ExternalKey    string                `json:"external_key"`
	Subject        string                `json:"subject"`
	Description    string                `json:"description"`
	Category       string                `json:"category"`
	School         string                `json:"school"`
	Location       string                `json:"location,omitempty"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	RequesterEmail string                `json:"requester_email"`
	AssigneeID     *string               `json:"assignee_id"`
	Sensitive      bool                  `json:"sensitive"`
	SLADueAt       time.Time             `json:"sla_due_at"`
	SLABreached    bool                  `json:"sla_breached"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
	History        []TicketHistoryEntry  `json:"history"`
}

// TicketHistoryEntry is one audit record.
type TicketHistoryEntry struct {
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID *string                 `json:"changed_by_id"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	CreatedAt   time.Time               `json:"created_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// AssignRequest payload. A null assignee_id unassigns.
type AssignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// NewTicketSummary maps a domain ticket to its list row.
func NewTicketSummary(t domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          t.ID,
		ExternalKey: t.ExternalKey,
		Subject:     t.Subject,
		Category:    t.Category,
		School:      t.School,
		Location:    t.Location,
		Status:      t.Status,
		Priority:    t.Priority,
		Sensitive:   t.Sensitive,
		SLADueAt:    t.SLADueAt,
		SLABreached: t.SLABreached,
		CreatedAt:   t.CreatedAt,
	}
}

// NewTicketDetail maps a domain ticket plus history to the detail response.
func NewTicketDetail(t *domain.Ticket, history []domain.TicketHistory) TicketDetailResponse {
	entries := make([]TicketHistoryEntry, 0, len(history))
	for _, h := range history {
		entries = append(entries, TicketHistoryEntry{
			ChangeType:  h.ChangeType,
			ChangedByID: h.ChangedByID,
			OldValue:    h.OldValue,
			NewValue:    h.NewValue,
			CreatedAt:   h.CreatedAt,
		})
	}
	return TicketDetailResponse{
		ID:             t.ID,
		ExternalKey:    t.ExternalKey,
		Subject:        t.Subject,
		Description:    t.Description,
		Category:       t.Category,
		School:         t.School,
		Location:       t.Location,
		Status:         t.Status,
		Priority:       t.Priority,
		RequesterEmail: t.RequesterEmail,
		AssigneeID:     t.AssigneeID,
		Sensitive:      t.Sensitive,
		SLADueAt:       t.SLADueAt,
		SLABreached:    t.SLABreached,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ClosedAt:       t.ClosedAt,
		History:        entries,
	}
}
