package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/district-helpdesk/internal/api/dto"
	"github.com/spec-kit/district-helpdesk/internal/intake"
	"github.com/spec-kit/district-helpdesk/internal/kb"
	"github.com/spec-kit/district-helpdesk/internal/service"
	apperrors "github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// IntakeHandler manages the requester-facing conversation endpoints.
type IntakeHandler struct {
	service *service.IntakeService
	catalog *service.CatalogService
}

// NewIntakeHandler constructs handler.
func NewIntakeHandler(intakeService *service.IntakeService, catalog *service.CatalogService) *IntakeHandler {
	return &IntakeHandler{service: intakeService, catalog: catalog}
}

// StartConversation POST /intake/conversations.
func (h *IntakeHandler) StartConversation(c *fiber.Ctx) error {
	var req dto.StartConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !strings.Contains(req.RequesterEmail, "@") {
		return apperrors.NewValidationError("valid requester_email required", nil)
	}
	if strings.TrimSpace(req.School) == "" {
		return apperrors.NewValidationError("school required", nil)
	}

	conv, reply := h.service.Start(c.Context(), req.RequesterEmail, req.School)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": conversationReply(conv.ID, reply)})
}

// GetConversation GET /intake/conversations/:id.
func (h *IntakeHandler) GetConversation(c *fiber.Ctx) error {
	conv, err := h.service.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"conversation_id": conv.ID,
		"state":           string(conv.State()),
		"school":          conv.School,
	}})
}

// PostMessage POST /intake/conversations/:id/messages.
func (h *IntakeHandler) PostMessage(c *fiber.Ctx) error {
	var req dto.ConversationMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.service.HandleTurn(c.Context(), c.Params("id"), req.Message)
	switch {
	case err == nil:
	case errors.Is(err, intake.ErrConversationOver):
		return apperrors.NewConflict("conversation already finished", nil)
	case errors.Is(err, intake.ErrEmptyMessage):
		return apperrors.NewValidationError("message text required", nil)
	default:
		// Reprompts and retryable store failures still carry the reply.
		if reply.Prompt != "" {
			return c.JSON(fiber.Map{"data": conversationReply(c.Params("id"), reply)})
		}
		return err
	}

	return c.JSON(fiber.Map{"data": conversationReply(c.Params("id"), reply)})
}

// SearchArticles GET /intake/kb/search. Runs the weighted matcher against
// the current article snapshot.
func (h *IntakeHandler) SearchArticles(c *fiber.Ctx) error {
	var params dto.KBSearchQuery
	if err := c.QueryParser(&params); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return apperrors.NewValidationError("q required", nil)
	}

	article, ok := kb.MatchWeighted(query, h.catalog.Articles())
	if !ok {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.ArticleSuggestion{
		ID:      article.ID,
		Title:   article.Title,
		Content: article.Content,
	}})
}

func conversationReply(conversationID string, reply intake.Reply) dto.ConversationReply {
	out := dto.ConversationReply{
		ConversationID: conversationID,
		State:          string(reply.State),
		Prompt:         reply.Prompt,
	}
	if reply.Article != nil {
		out.Article = &dto.ArticleSuggestion{
			ID:      reply.Article.ID,
			Title:   reply.Article.Title,
			Content: reply.Article.Content,
		}
	}
	if reply.Ticket != nil {
		summary := dto.NewTicketSummary(*reply.Ticket)
		out.Ticket = &summary
	}
	return out
}
