package memory

import (
	"context"
	"sync"

	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type catalogRepository struct {
	mu         sync.RWMutex
	meals      map[int]domain.Meal
	categories map[int]domain.MealCategory
}

// NewCatalogRepository builds a read-only catalog seeded with the given
// categories and meals.
func NewCatalogRepository(categories []domain.MealCategory, meals []domain.Meal) interfaces.CatalogRepository {
	repo := &catalogRepository{
		meals:      make(map[int]domain.Meal, len(meals)),
		categories: make(map[int]domain.MealCategory, len(categories)),
	}
	for _, c := range categories {
		repo.categories[c.ID] = c
	}
	for _, m := range meals {
		if m.CategoryName == "" {
			if c, ok := repo.categories[m.CategoryID]; ok {
				m.CategoryName = c.Name
			}
		}
		repo.meals[m.ID] = m
	}
	return repo
}

func (r *catalogRepository) GetMeal(ctx context.Context, id int) (*domain.Meal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meal, ok := r.meals[id]
	if !ok || !meal.IsActive {
		return nil, domain.ErrMealNotFound
	}
	out := meal
	return &out, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]*domain.MealCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.MealCategory, 0, len(r.categories))
	for _, c := range r.categories {
		cp := c
		out = append(out, &cp)
	}
	return out, nil
}
