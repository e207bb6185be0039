package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type catalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) interfaces.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetMeal(ctx context.Context, id int) (*domain.Meal, error) {
	// Inactive meals are invisible to the ledgers.
	query := `
		SELECT m.id, m.category_id, m.name, m.description, m.price, m.is_active, c.name
		FROM meals m
		JOIN meal_categories c ON c.id = m.category_id
		WHERE m.id = $1 AND m.is_active
	`
	var meal domain.Meal
	err := r.db.QueryRow(ctx, query, id).Scan(
		&meal.ID, &meal.CategoryID, &meal.Name, &meal.Description,
		&meal.Price, &meal.IsActive, &meal.CategoryName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load meal: %w", err)
	}
	return &meal, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]*domain.MealCategory, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM meal_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.MealCategory
	for rows.Next() {
		var c domain.MealCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, nil
}
