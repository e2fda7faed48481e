package events

import (
	"time"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketSLABreached   EventType = "ticket_sla_breached"
	EventKBDeflection        EventType = "kb_deflection"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject        string                `json:"subject"`
	Category       string                `json:"category"`
	School         string                `json:"school"`
	Priority       domain.TicketPriority `json:"priority"`
	RequesterEmail string                `json:"requester_email"`
	Sensitive      bool                  `json:"sensitive"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	Category         string    `json:"category"`
	OwningDepartment string    `json:"owning_department"`
	DueAt            time.Time `json:"due_at"`
}

// KBDeflectionPayload records a conversation resolved by an article before
// any ticket was created. Feeds deflection-rate reporting.
type KBDeflectionPayload struct {
	ConversationID string `json:"conversation_id"`
	ArticleID      string `json:"article_id"`
}
