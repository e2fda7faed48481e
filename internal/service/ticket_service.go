package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/intake"
	"github.com/spec-kit/district-helpdesk/internal/observability"
	"github.com/spec-kit/district-helpdesk/internal/policy"
	"github.com/spec-kit/district-helpdesk/internal/realtime"
	"github.com/spec-kit/district-helpdesk/internal/repository"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// allowedTransitions maps each status to the statuses it may move to.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:          {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress:    {domain.TicketStatusPendingVendor, domain.TicketStatusResolved, domain.TicketStatusOpen},
	domain.TicketStatusPendingVendor: {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusResolved:      {domain.TicketStatusClosed, domain.TicketStatusOpen},
	domain.TicketStatusClosed:        {},
}

// ListQuery carries the staff-facing listing facets. Status accepts the
// ACTIVE and RESOLVED groupings in addition to ALL.
type ListQuery struct {
	Status   policy.StatusFacet
	Category string
	School   string
	Search   string
	Limit    int
	Offset   int
}

// TicketService implements triage: listing, detail, status transitions,
// assignment, and ticket creation on behalf of the intake flow.
type TicketService struct {
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
	access  *policy.AccessPolicy
	catalog *CatalogService
	sla     config.SLAConfig

	dispatcher events.Dispatcher
	feed       *realtime.ChangeFeed
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewTicketService wires the triage service.
func NewTicketService(
	tickets repository.TicketRepository,
	history repository.TicketHistoryRepository,
	access *policy.AccessPolicy,
	catalog *CatalogService,
	sla config.SLAConfig,
	dispatcher events.Dispatcher,
	feed *realtime.ChangeFeed,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		tickets:    tickets,
		history:    history,
		access:     access,
		catalog:    catalog,
		sla:        sla,
		dispatcher: dispatcher,
		feed:       feed,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateFromIntake persists a finalized intake draft as an Open ticket.
// It satisfies the intake flow's TicketCreator dependency.
func (s *TicketService) CreateFromIntake(ctx context.Context, requesterEmail, school string, draft intake.Draft) (*domain.Ticket, error) {
	if strings.TrimSpace(requesterEmail) == "" {
		return nil, errorutil.NewValidationError("requester email required", nil)
	}

	now := time.Now()
	ticket := &domain.Ticket{
		ExternalKey:    generateTicketKey(),
		Subject:        draft.Subject,
		Description:    draft.Description,
		Category:       draft.Category,
		School:         school,
		Location:       draft.Location,
		Status:         domain.TicketStatusOpen,
		Priority:       draft.Priority,
		RequesterEmail: strings.ToLower(requesterEmail),
		Sensitive:      draft.Sensitive,
		SLADueAt:       now.Add(s.sla.DueWindow(string(draft.Priority))),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	s.metrics.RecordTicketCreated()
	s.metrics.RecordClassification(ticket.Category)

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Subject:        ticket.Subject,
			Category:       ticket.Category,
			School:         ticket.School,
			Priority:       ticket.Priority,
			RequesterEmail: ticket.RequesterEmail,
			Sensitive:      ticket.Sensitive,
		},
	})
	s.feed.Notify(ctx, realtime.TableTickets)

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("external_key", ticket.ExternalKey),
		zap.String("category", ticket.Category),
		zap.String("school", ticket.School))
	return ticket, nil
}

// ListVisible queries the store with the viewer's facets, then applies
// visibility filtering and redaction. Facets narrow first; access rules
// run on the narrowed set and can only remove or redact, never widen.
// The facets are pushed into the query so LIMIT/OFFSET pages over rows
// that already match them; the policy layer re-applies the same facets
// before the access check.
func (s *TicketService) ListVisible(ctx context.Context, viewer *domain.Staff, query ListQuery) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses: statusesForFacet(query.Status),
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.Category != "" && query.Category != policy.FacetAll {
		filter.Category = &query.Category
	}
	if query.School != "" && query.School != policy.FacetAll {
		filter.School = &query.School
	}
	if query.Search != "" {
		filter.SearchTerm = &query.Search
	}

	rows, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	visible := s.access.VisibleTickets(rows, viewer, policy.Filters{
		Status:   query.Status,
		Category: query.Category,
		School:   query.School,
	}, s.catalog.Taxonomy())
	return visible, nil
}

// statusesForFacet translates a status facet into the status set the
// store should match. An empty result means no status restriction.
func statusesForFacet(facet policy.StatusFacet) []domain.TicketStatus {
	switch facet {
	case policy.StatusFacetActive:
		return []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInProgress,
			domain.TicketStatusPendingVendor,
			domain.TicketStatusClosed,
		}
	case policy.StatusFacetResolved:
		return []domain.TicketStatus{domain.TicketStatusResolved}
	default:
		return nil
	}
}

// GetDetail returns the full ticket with its history. Sensitive tickets
// require super-admin regardless of any other access path.
func (s *TicketService) GetDetail(ctx context.Context, viewer *domain.Staff, id string) (*domain.Ticket, []domain.TicketHistory, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, nil, errorutil.ToDomainError(err)
	}

	if !s.access.CanView(viewer, ticket, s.catalog.Taxonomy()) {
		return nil, nil, errorutil.NewNotFound("ticket", nil)
	}
	if !s.access.CanViewDetail(viewer, ticket, s.catalog.Taxonomy()) {
		return nil, nil, errorutil.NewForbidden("this ticket is confidential")
	}

	entries, err := s.history.ListByTicket(ctx, ticket.ID, 100, 0)
	if err != nil {
		return nil, nil, errorutil.ToDomainError(err)
	}
	return ticket, entries, nil
}

// UpdateStatus moves a ticket along the allowed transition graph.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Staff, id string, next domain.TicketStatus, comment string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	if !s.access.CanMutate(actor, ticket, s.catalog.Taxonomy()) {
		return nil, errorutil.NewForbidden("not allowed to update this ticket")
	}
	if ticket.Status == next {
		return ticket, nil
	}
	if !transitionAllowed(ticket.Status, next) {
		return nil, errorutil.NewValidationError(
			fmt.Sprintf("cannot move ticket from %s to %s", ticket.Status, next),
			map[string]any{"from": string(ticket.Status), "to": string(next)},
		)
	}

	old := ticket.Status
	ticket.Status = next
	if next == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ClosedAt = &now
	} else {
		ticket.ClosedAt = nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	s.recordHistory(ctx, ticket.ID, &actor.ID, domain.ChangeTypeStatus,
		map[string]any{"status": string(old)},
		map[string]any{"status": string(next), "comment": comment})

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old,
			NewStatus: next,
			Comment:   comment,
		},
	})
	s.feed.Notify(ctx, realtime.TableTickets)
	return ticket, nil
}

// Assign sets or clears the assignee. A nil assigneeID unassigns.
func (s *TicketService) Assign(ctx context.Context, actor *domain.Staff, id string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	if !s.access.CanMutate(actor, ticket, s.catalog.Taxonomy()) {
		return nil, errorutil.NewForbidden("not allowed to assign this ticket")
	}

	old := ticket.AssigneeID
	ticket.AssigneeID = assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.ToDomainError(err)
	}

	s.recordHistory(ctx, ticket.ID, &actor.ID, domain.ChangeTypeAssignee,
		map[string]any{"assignee_id": deref(old)},
		map[string]any{"assignee_id": deref(assigneeID)})

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload:  events.TicketAssignedPayload{AssigneeID: assigneeID},
	})
	s.feed.Notify(ctx, realtime.TableTickets)
	return ticket, nil
}

// GetByExternalKey resolves the human-facing key, subject to the same
// visibility rules as detail access.
func (s *TicketService) GetByExternalKey(ctx context.Context, viewer *domain.Staff, key string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByExternalKey(ctx, key)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	if !s.access.CanView(viewer, ticket, s.catalog.Taxonomy()) {
		return nil, errorutil.NewNotFound("ticket", nil)
	}
	if !s.access.CanViewDetail(viewer, ticket, s.catalog.Taxonomy()) {
		return nil, errorutil.NewForbidden("this ticket is confidential")
	}
	return ticket, nil
}

func (s *TicketService) recordHistory(ctx context.Context, ticketID string, actorID *string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: actorID,
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("history write failed",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func transitionAllowed(from, to domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// generateTicketKey produces the human-facing ticket key, e.g. HD-4F2A9C.
func generateTicketKey() string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return "HD-" + fragment
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
