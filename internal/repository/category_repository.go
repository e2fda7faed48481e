package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

// CategoryRepository manages the taxonomy's category configs.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.CategoryConfig) error
	Update(ctx context.Context, category *domain.CategoryConfig) error
	GetByName(ctx context.Context, name string) (*domain.CategoryConfig, error)
	// ListOrdered returns categories in declared position order. The
	// classifier depends on this order for deterministic tie-breaking.
	ListOrdered(ctx context.Context) ([]domain.CategoryConfig, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.CategoryConfig) error {
	const query = `
        INSERT INTO categories (name, owning_department, is_sensitive, keywords, position)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.Name,
		category.OwningDepartment,
		category.Sensitive,
		category.Keywords,
		category.Position,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.CategoryConfig) error {
	const query = `
        UPDATE categories SET name=$1, owning_department=$2, is_sensitive=$3, keywords=$4, position=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		category.Name,
		category.OwningDepartment,
		category.Sensitive,
		category.Keywords,
		category.Position,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.CategoryConfig, error) {
	const query = `
        SELECT id, name, owning_department, is_sensitive, keywords, position, created_at, updated_at
        FROM categories WHERE name=$1`
	var category domain.CategoryConfig
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&category.ID,
		&category.Name,
		&category.OwningDepartment,
		&category.Sensitive,
		&category.Keywords,
		&category.Position,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListOrdered(ctx context.Context) ([]domain.CategoryConfig, error) {
	const query = `
        SELECT id, name, owning_department, is_sensitive, keywords, position, created_at, updated_at
        FROM categories ORDER BY position ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CategoryConfig
	for rows.Next() {
		var category domain.CategoryConfig
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.OwningDepartment,
			&category.Sensitive,
			&category.Keywords,
			&category.Position,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
