package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/district-helpdesk/internal/api/dto"
	"github.com/spec-kit/district-helpdesk/internal/auth"
	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/policy"
	"github.com/spec-kit/district-helpdesk/internal/service"
	apperrors "github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages the staff triage endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}

	var query dto.TicketListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}

	tickets, err := h.service.ListVisible(c.Context(), principal.Staff, service.ListQuery{
		Status:   parseStatusFacet(query.Status),
		Category: query.Category,
		School:   query.School,
		Search:   query.Search,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}

	ticket, history, err := h.service.GetDetail(c.Context(), principal.Staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, history)})
}

// GetTicketByKey GET /tickets/key/:key.
func (h *TicketsHandler) GetTicketByKey(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}

	ticket, err := h.service.GetByExternalKey(c.Context(), principal.Staff, c.Params("key"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, nil)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !validStatus(req.Status) {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": string(req.Status)})
	}

	ticket, err := h.service.UpdateStatus(c.Context(), principal.Staff, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket)})
}

// Assign PATCH /tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Assign(c.Context(), principal.Staff, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket)})
}

func parseStatusFacet(raw string) policy.StatusFacet {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(policy.StatusFacetActive):
		return policy.StatusFacetActive
	case string(policy.StatusFacetResolved):
		return policy.StatusFacetResolved
	default:
		return policy.StatusFacetAll
	}
}

func validStatus(status domain.TicketStatus) bool {
	switch status {
	case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusPendingVendor,
		domain.TicketStatusResolved, domain.TicketStatusClosed:
		return true
	}
	return false
}
