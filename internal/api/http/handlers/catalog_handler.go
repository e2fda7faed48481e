package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/district-helpdesk/internal/api/dto"
	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/service"
	apperrors "github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// CatalogHandler manages the category taxonomy and knowledge-base admin
// endpoints. Reads are open to any staff; writes are super-admin routes.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories GET /catalog/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	cats := h.catalog.Taxonomy().Categories()
	items := make([]dto.CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		items = append(items, dto.NewCategoryResponse(cat))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCategory POST /catalog/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.UpsertCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	category := domain.CategoryConfig{
		Name:             req.Name,
		OwningDepartment: req.OwningDepartment,
		Sensitive:        req.Sensitive,
		Keywords:         req.Keywords,
		Position:         req.Position,
	}
	if err := h.catalog.CreateCategory(c.Context(), &category); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// UpdateCategory PUT /catalog/categories/:id.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.UpsertCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	category := domain.CategoryConfig{
		ID:               c.Params("id"),
		Name:             req.Name,
		OwningDepartment: req.OwningDepartment,
		Sensitive:        req.Sensitive,
		Keywords:         req.Keywords,
		Position:         req.Position,
	}
	if err := h.catalog.UpdateCategory(c.Context(), &category); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// ListArticles GET /catalog/articles.
func (h *CatalogHandler) ListArticles(c *fiber.Ctx) error {
	articles := h.catalog.Articles()
	items := make([]dto.ArticleResponse, 0, len(articles))
	for _, article := range articles {
		items = append(items, dto.NewArticleResponse(article))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateArticle POST /catalog/articles.
func (h *CatalogHandler) CreateArticle(c *fiber.Ctx) error {
	var req dto.UpsertArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	article := domain.Article{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Triggers: req.Triggers,
		Position: req.Position,
	}
	if err := h.catalog.CreateArticle(c.Context(), &article); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewArticleResponse(article)})
}

// UpdateArticle PUT /catalog/articles/:id.
func (h *CatalogHandler) UpdateArticle(c *fiber.Ctx) error {
	var req dto.UpsertArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	article := domain.Article{
		ID:       c.Params("id"),
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Triggers: req.Triggers,
		Position: req.Position,
	}
	if err := h.catalog.UpdateArticle(c.Context(), &article); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewArticleResponse(article)})
}
