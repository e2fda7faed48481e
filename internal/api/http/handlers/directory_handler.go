package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/district-helpdesk/internal/api/dto"
	"github.com/spec-kit/district-helpdesk/internal/directory"
	apperrors "github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// minDirectoryQueryLength keeps wildcard-ish lookups off the upstream tenant.
const minDirectoryQueryLength = 3

// DirectoryHandler proxies staff directory search.
type DirectoryHandler struct {
	searcher directory.Searcher
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(searcher directory.Searcher) *DirectoryHandler {
	return &DirectoryHandler{searcher: searcher}
}

// Search GET /directory/search.
func (h *DirectoryHandler) Search(c *fiber.Ctx) error {
	if h.searcher == nil {
		return apperrors.NewNotFound("directory search", nil)
	}

	var params dto.DirectorySearchQuery
	if err := c.QueryParser(&params); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	query := strings.TrimSpace(params.Query)
	if len(query) < minDirectoryQueryLength {
		return apperrors.NewValidationError("q must be at least 3 characters", map[string]any{"q": query})
	}

	entries, err := h.searcher.Search(c.Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDirectoryEntries(entries)})
}
