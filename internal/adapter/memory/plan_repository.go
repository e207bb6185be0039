package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type planRecord struct {
	mu   sync.Mutex
	plan domain.BudgetPlan
}

type planRepository struct {
	mu     sync.RWMutex
	plans  map[int]*planRecord
	nextID int
}

func NewPlanRepository() interfaces.PlanRepository {
	return &planRepository{
		plans:  make(map[int]*planRecord),
		nextID: 1,
	}
}

func (r *planRepository) Create(ctx context.Context, plan *domain.BudgetPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan.ID = r.nextID
	r.nextID++
	for i := range plan.Items {
		plan.Items[i].ID = i + 1
	}

	cp := clonePlan(plan)
	r.plans[plan.ID] = &planRecord{plan: *cp}
	return nil
}

func (r *planRepository) GetByID(ctx context.Context, id int) (*domain.BudgetPlan, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return clonePlan(&rec.plan), nil
}

func (r *planRepository) UpdateStatus(ctx context.Context, planID int, status domain.PlanStatus) error {
	rec, err := r.record(planID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.plan.Status = status
	return nil
}

func (r *planRepository) AddActual(ctx context.Context, planID, mealID, quantity int, cost int64) error {
	rec, err := r.record(planID)
	if err != nil {
		return err
	}

	// The plan lock serializes concurrent actuals for every (plan, meal) pair.
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.plan.Status != domain.PlanStatusActive {
		return domain.ErrPlanNotActive
	}

	item := rec.plan.ItemForMeal(mealID)
	if item == nil {
		return domain.ErrItemNotFound
	}

	item.ActualQuantity += quantity
	item.ActualCost += cost
	if item.ActualQuantity < 0 {
		item.ActualQuantity = 0
	}
	if item.ActualCost < 0 {
		item.ActualCost = 0
	}
	return nil
}

func (r *planRepository) List(ctx context.Context, status *domain.PlanStatus, planType *domain.PlanType) ([]*domain.BudgetPlan, error) {
	out, err := r.list(func(p *domain.BudgetPlan) bool {
		if status != nil && p.Status != *status {
			return false
		}
		if planType != nil && p.Type != *planType {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *planRepository) ListActiveCovering(ctx context.Context, date time.Time) ([]*domain.BudgetPlan, error) {
	return r.list(func(p *domain.BudgetPlan) bool {
		return p.Status == domain.PlanStatusActive && p.Covers(date)
	})
}

func (r *planRepository) ListIntersecting(ctx context.Context, from, to time.Time) ([]*domain.BudgetPlan, error) {
	f, t := domain.DateOnly(from), domain.DateOnly(to)
	return r.list(func(p *domain.BudgetPlan) bool {
		return !p.StartDate.After(t) && !p.EndDate.Before(f)
	})
}

func (r *planRepository) ListExpired(ctx context.Context, asOf time.Time) ([]*domain.BudgetPlan, error) {
	day := domain.DateOnly(asOf)
	return r.list(func(p *domain.BudgetPlan) bool {
		return p.Status == domain.PlanStatusActive && p.EndDate.Before(day)
	})
}

func (r *planRepository) record(id int) (*planRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return rec, nil
}

func (r *planRepository) list(match func(*domain.BudgetPlan) bool) ([]*domain.BudgetPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.BudgetPlan
	for _, rec := range r.plans {
		rec.mu.Lock()
		if match(&rec.plan) {
			out = append(out, clonePlan(&rec.plan))
		}
		rec.mu.Unlock()
	}
	return out, nil
}

func clonePlan(p *domain.BudgetPlan) *domain.BudgetPlan {
	cp := *p
	cp.Items = make([]domain.BudgetPlanItem, len(p.Items))
	copy(cp.Items, p.Items)
	return &cp
}
