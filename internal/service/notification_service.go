package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/mailrelay"
	"github.com/spec-kit/district-helpdesk/internal/observability"
	"github.com/spec-kit/district-helpdesk/internal/repository"
)

// NotificationService turns domain events into outbound mail. All sends are
// best-effort: a relay failure is logged and the triggering operation is
// unaffected.
type NotificationService struct {
	sender      mailrelay.Sender
	tickets     repository.TicketRepository
	departments repository.DepartmentRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewNotificationService builds the service. A nil sender disables mail but
// keeps the escalation metric hooks active.
func NewNotificationService(
	sender mailrelay.Sender,
	tickets repository.TicketRepository,
	departments repository.DepartmentRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		sender:      sender,
		tickets:     tickets,
		departments: departments,
		metrics:     metrics,
		logger:      logger,
	}
}

// Register subscribes the service to the events it reacts to.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.onStatusChanged)
	dispatcher.Subscribe(events.EventTicketSLABreached, s.onSLABreached)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}

	subject := "We received your helpdesk request"
	body := fmt.Sprintf(
		"<p>Your request has been logged as a <b>%s</b> ticket for <b>%s</b>.</p><p>We'll email you when its status changes.</p>",
		payload.Category, payload.School)
	s.send(ctx, payload.RequesterEmail, subject, body)
	return nil
}

func (s *NotificationService) onStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}

	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		s.logger.Warn("notification lookup failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return nil
	}

	subject := fmt.Sprintf("Ticket %s is now %s", ticket.ExternalKey, payload.NewStatus)
	body := fmt.Sprintf("<p>Your ticket <b>%s</b> moved from %s to <b>%s</b>.</p>",
		ticket.ExternalKey, payload.OldStatus, payload.NewStatus)
	if payload.Comment != "" {
		body += fmt.Sprintf("<p>Note from the team: %s</p>", payload.Comment)
	}
	s.send(ctx, ticket.RequesterEmail, subject, body)
	return nil
}

// onSLABreached escalates to the owning department's team inbox. The
// escalation metric counts once per breach because the watchdog only
// publishes when it wins the breach flag flip.
func (s *NotificationService) onSLABreached(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketSLABreachedPayload)
	if !ok {
		return nil
	}

	s.metrics.RecordSLAEscalation()

	if payload.OwningDepartment == "" || payload.OwningDepartment == domain.UnassignedDepartment {
		s.logger.Warn("sla breach with no owning department",
			zap.String("ticket_id", event.TicketID),
			zap.String("category", payload.Category))
		return nil
	}

	dept, err := s.departments.GetByName(ctx, payload.OwningDepartment)
	if err != nil {
		s.logger.Warn("escalation department lookup failed",
			zap.String("department", payload.OwningDepartment),
			zap.Error(err))
		return nil
	}

	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		s.logger.Warn("escalation ticket lookup failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return nil
	}

	subject := fmt.Sprintf("SLA breached: %s (%s)", ticket.ExternalKey, payload.Category)
	body := fmt.Sprintf(
		"<p>Ticket <b>%s</b> at %s passed its response deadline (%s).</p><p>Current status: %s, priority %s.</p>",
		ticket.ExternalKey, ticket.School, payload.DueAt.Format("Jan 2 15:04"), ticket.Status, ticket.Priority)
	s.send(ctx, dept.TeamEmail, subject, body)
	return nil
}

func (s *NotificationService) send(ctx context.Context, to, subject, body string) {
	if s.sender == nil || to == "" {
		return
	}
	if err := s.sender.SendEmail(ctx, to, subject, body); err != nil {
		s.logger.Warn("notification send failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
