// Package budget implements the budget ledger: plan definition, cost
// aggregation and status lifecycle enforcement.
package budget

import (
	"context"
	"time"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type Service struct {
	plans     interfaces.PlanRepository
	catalog   interfaces.CatalogRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

func NewService(plans interfaces.PlanRepository, catalog interfaces.CatalogRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		plans:     plans,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// CreatePlan creates a plan in draft status. Items are fixed at creation;
// revising a plan means creating a new one.
func (s *Service) CreatePlan(ctx context.Context, cmd interfaces.CreatePlanCommand) (*domain.BudgetPlan, error) {
	items := make([]domain.BudgetPlanItem, len(cmd.Items))
	for i, item := range cmd.Items {
		meal, err := s.catalog.GetMeal(ctx, item.MealID)
		if err != nil {
			return nil, err
		}
		items[i] = domain.BudgetPlanItem{
			MealID:            item.MealID,
			MealName:          meal.Name,
			EstimatedQuantity: item.EstimatedQuantity,
			UnitCost:          item.UnitCost,
			Notes:             item.Notes,
		}
	}

	plan, err := domain.NewBudgetPlan(cmd.Name, domain.PlanType(cmd.PlanType), cmd.StartDate, cmd.EndDate, cmd.TotalBudget, cmd.CreatedBy, items)
	if err != nil {
		s.logger.Error("plan_validation_failed", "Plan validation failed", "", nil, err)
		return nil, err
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	s.logger.Debug("plan_created", "Budget plan created", "", map[string]interface{}{
		"plan_id":        plan.ID,
		"name":           plan.Name,
		"estimated_cost": plan.EstimatedCost(),
	})

	return plan, nil
}

func (s *Service) GetPlan(ctx context.Context, planID int) (*domain.BudgetPlan, error) {
	return s.plans.GetByID(ctx, planID)
}

// ListPlans returns plans narrowed by the optional status and plan type
// filters, in creation order.
func (s *Service) ListPlans(ctx context.Context, status *domain.PlanStatus, planType *domain.PlanType) ([]*domain.BudgetPlan, error) {
	return s.plans.List(ctx, status, planType)
}

// Transition moves a plan along the lifecycle graph
// draft -> {active, cancelled}, active -> {completed, cancelled}.
func (s *Service) Transition(ctx context.Context, planID int, target domain.PlanStatus) (*domain.BudgetPlan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := plan.TransitionTo(target); err != nil {
		return nil, err
	}

	if err := s.plans.UpdateStatus(ctx, planID, target); err != nil {
		return nil, err
	}

	s.logger.Debug("plan_status_changed", "Plan status changed", "", map[string]interface{}{
		"plan_id": planID,
		"status":  string(target),
	})

	s.publishPlanEvent(ctx, planID, target)
	return plan, nil
}

// RecordActual accumulates fulfilled spend onto the matching planned item.
// Legal only while the plan is active; actuals for unplanned meals are not
// tracked by this ledger.
func (s *Service) RecordActual(ctx context.Context, planID, mealID, quantity int, cost int64) error {
	if quantity < 0 || cost < 0 {
		return domain.ErrInvalidItem
	}
	return s.plans.AddActual(ctx, planID, mealID, quantity, cost)
}

// GetVariance returns the variance tuple computed from current item state.
func (s *Service) GetVariance(ctx context.Context, planID int) (*interfaces.VarianceReport, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return VarianceOf(plan), nil
}

// VarianceOf builds the variance tuple for a plan. Pure read.
func VarianceOf(plan *domain.BudgetPlan) *interfaces.VarianceReport {
	return &interfaces.VarianceReport{
		PlanID:             plan.ID,
		PlanName:           plan.Name,
		EstimatedCost:      plan.EstimatedCost(),
		ActualCost:         plan.ActualCost(),
		Variance:           plan.Variance(),
		VariancePercentage: plan.VariancePercentage(),
	}
}

// ApplyFulfillment routes one fulfillment event to every active plan that
// covers the date and planned the meal. Zero matches is not an error.
func (s *Service) ApplyFulfillment(ctx context.Context, date time.Time, mealID, quantity int, cost int64) (int, error) {
	return s.apply(ctx, date, mealID, quantity, cost)
}

// ApplyCancellation compensates a cancelled fulfillment with negative deltas.
// The repository floors actuals at zero.
func (s *Service) ApplyCancellation(ctx context.Context, date time.Time, mealID, quantity int, cost int64) (int, error) {
	return s.apply(ctx, date, mealID, -quantity, -cost)
}

func (s *Service) apply(ctx context.Context, date time.Time, mealID, quantity int, cost int64) (int, error) {
	plans, err := s.plans.ListActiveCovering(ctx, date)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, plan := range plans {
		if plan.ItemForMeal(mealID) == nil {
			continue
		}
		if err := s.plans.AddActual(ctx, plan.ID, mealID, quantity, cost); err != nil {
			return applied, err
		}
		applied++
	}

	if applied == 0 {
		s.logger.Debug("actual_skipped", "No active plan tracks this meal", "", map[string]interface{}{
			"meal_id": mealID,
			"date":    domain.DateOnly(date).Format("2006-01-02"),
		})
	}
	return applied, nil
}

// CloseExpired completes every active plan whose window has passed. Called
// periodically by the fulfillment worker.
func (s *Service) CloseExpired(ctx context.Context, asOf time.Time) (int, error) {
	expired, err := s.plans.ListExpired(ctx, asOf)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, plan := range expired {
		if _, err := s.Transition(ctx, plan.ID, domain.PlanStatusCompleted); err != nil {
			s.logger.Error("plan_close_failed", "Failed to complete expired plan", "", map[string]interface{}{
				"plan_id": plan.ID,
			}, err)
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *Service) publishPlanEvent(ctx context.Context, planID int, status domain.PlanStatus) {
	if s.publisher == nil {
		return
	}
	msg := interfaces.LedgerEventMessage{
		Event:     "plan_status_changed",
		PlanID:    &planID,
		Status:    &status,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		s.logger.Warn("event_publish_failed", "Failed to publish ledger event", "", map[string]interface{}{
			"plan_id": planID,
		})
	}
}
