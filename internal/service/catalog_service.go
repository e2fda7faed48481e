// Package service implements the application's use cases over the
// repositories, the rule engines, and the external adapters.
package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/realtime"
	"github.com/spec-kit/district-helpdesk/internal/repository"
	"github.com/spec-kit/district-helpdesk/internal/taxonomy"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// CatalogService holds the current category taxonomy and knowledge-base
// snapshot in memory. Classification and deflection read these snapshots;
// change signals trigger a reload so edits apply to the next conversation
// turn without a restart.
type CatalogService struct {
	categories repository.CategoryRepository
	articles   repository.ArticleRepository
	feed       *realtime.ChangeFeed
	logger     *zap.Logger

	mu       sync.RWMutex
	tax      *taxonomy.Taxonomy
	snapshot []domain.Article
}

// NewCatalogService builds the service with an empty snapshot; call
// Refresh before serving traffic.
func NewCatalogService(
	categories repository.CategoryRepository,
	articles repository.ArticleRepository,
	feed *realtime.ChangeFeed,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		articles:   articles,
		feed:       feed,
		logger:     logger,
		tax:        taxonomy.New(nil),
	}
}

// Refresh reloads both snapshots from the store.
func (s *CatalogService) Refresh(ctx context.Context) error {
	cats, err := s.categories.ListOrdered(ctx)
	if err != nil {
		return err
	}
	arts, err := s.articles.ListOrdered(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tax = taxonomy.New(cats)
	s.snapshot = arts
	s.mu.Unlock()

	s.logger.Info("catalog refreshed",
		zap.Int("categories", len(cats)),
		zap.Int("articles", len(arts)))
	return nil
}

// Watch reloads the snapshot whenever the categories or articles table
// signals a change, until ctx is cancelled.
func (s *CatalogService) Watch(ctx context.Context) {
	categorySignals := s.feed.Subscribe(ctx, realtime.TableCategories)
	articleSignals := s.feed.Subscribe(ctx, realtime.TableArticles)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-categorySignals:
				if !ok {
					return
				}
			case _, ok := <-articleSignals:
				if !ok {
					return
				}
			}
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("catalog refresh failed", zap.Error(err))
			}
		}
	}()
}

// Taxonomy returns the current classification taxonomy.
func (s *CatalogService) Taxonomy() *taxonomy.Taxonomy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tax
}

// Articles returns the current knowledge-base snapshot in position order.
func (s *CatalogService) Articles() []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// CreateCategory stores a new category and signals dependents.
func (s *CatalogService) CreateCategory(ctx context.Context, category *domain.CategoryConfig) error {
	if strings.TrimSpace(category.Name) == "" {
		return errorutil.NewValidationError("category name required", nil)
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return errorutil.ToDomainError(err)
	}
	s.feed.Notify(ctx, realtime.TableCategories)
	return nil
}

// UpdateCategory stores category changes and signals dependents.
func (s *CatalogService) UpdateCategory(ctx context.Context, category *domain.CategoryConfig) error {
	if err := s.categories.Update(ctx, category); err != nil {
		return errorutil.ToDomainError(err)
	}
	s.feed.Notify(ctx, realtime.TableCategories)
	return nil
}

// CreateArticle stores a new knowledge article and signals dependents.
func (s *CatalogService) CreateArticle(ctx context.Context, article *domain.Article) error {
	if strings.TrimSpace(article.Title) == "" {
		return errorutil.NewValidationError("article title required", nil)
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return errorutil.ToDomainError(err)
	}
	s.feed.Notify(ctx, realtime.TableArticles)
	return nil
}

// UpdateArticle stores article changes and signals dependents.
func (s *CatalogService) UpdateArticle(ctx context.Context, article *domain.Article) error {
	if err := s.articles.Update(ctx, article); err != nil {
		return errorutil.ToDomainError(err)
	}
	s.feed.Notify(ctx, realtime.TableArticles)
	return nil
}

// CategoryNames returns the taxonomy's category names in position order,
// for faceted listing UIs.
func (s *CatalogService) CategoryNames() []string {
	cats := s.Taxonomy().Categories()
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names
}
