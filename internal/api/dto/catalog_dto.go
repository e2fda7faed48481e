package dto

import "github.com/spec-kit/district-helpdesk/internal/domain"

// CategoryResponse is the taxonomy view exposed to admins.
type CategoryResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	OwningDepartment string   `json:"owning_department"`
	Sensitive        bool     `json:"sensitive"`
	Keywords         []string `json:"keywords"`
	Position         int      `json:"position"`
}

// UpsertCategoryRequest payload for category create/update.
type UpsertCategoryRequest struct {
	Name             string   `json:"name"`
	OwningDepartment string   `json:"owning_department"`
	Sensitive        bool     `json:"sensitive"`
	Keywords         []string `json:"keywords"`
	Position         int      `json:"position"`
}

// ArticleResponse is one knowledge-base entry.
type ArticleResponse struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Triggers []string `json:"triggers"`
	Position int      `json:"position"`
}

// UpsertArticleRequest payload for article create/update.
type UpsertArticleRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Triggers []string `json:"triggers"`
	Position int      `json:"position"`
}

// NewCategoryResponse maps a taxonomy entry.
func NewCategoryResponse(c domain.CategoryConfig) CategoryResponse {
	return CategoryResponse{
		ID:               c.ID,
		Name:             c.Name,
		OwningDepartment: c.OwningDepartment,
		Sensitive:        c.Sensitive,
		Keywords:         c.Keywords,
		Position:         c.Position,
	}
}

// NewArticleResponse maps a knowledge article.
func NewArticleResponse(a domain.Article) ArticleResponse {
	return ArticleResponse{
		ID:       a.ID,
		Title:    a.Title,
		Content:  a.Content,
		Category: a.Category,
		Triggers: a.Triggers,
		Position: a.Position,
	}
}
