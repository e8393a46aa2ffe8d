package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yourorg/roomstay/internal/domain"
)

// PostgresCategoryRepository implements domain.CategoryRepository using PostgreSQL
type PostgresCategoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCategoryRepository creates a new category repository
func NewPostgresCategoryRepository(db *sql.DB, logger *slog.Logger) *PostgresCategoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCategoryRepository{db: db, logger: logger}
}

// Create inserts a new category
func (r *PostgresCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, price_cents)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		category.ID,
		category.Name,
		category.PriceCents,
	).Scan(&category.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create category",
			slog.String("name", category.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by ID
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrCategoryNotFound
	}

	category := &domain.Category{}
	query := `SELECT id, name, price_cents, created_at FROM categories WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.PriceCents,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// List returns all categories ordered by name
func (r *PostgresCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price_cents, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.PriceCents, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
