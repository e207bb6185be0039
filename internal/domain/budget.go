package domain

import "time"

type PlanType string

const (
	PlanTypeWeekly  PlanType = "weekly"
	PlanTypeMonthly PlanType = "monthly"
)

// Valid reports whether pt is a known plan type.
func (pt PlanType) Valid() bool {
	return pt == PlanTypeWeekly || pt == PlanTypeMonthly
}

type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// Valid reports whether s is a known plan status.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusActive, PlanStatusCompleted, PlanStatusCancelled:
		return true
	}
	return false
}

// BudgetPlanItem is one planned line of spend. Estimated fields are fixed at
// plan creation; actual fields are accumulated from fulfillment events.
// Costs are in the smallest currency unit.
type BudgetPlanItem struct {
	ID                int
	MealID            int
	MealName          string
	EstimatedQuantity int
	UnitCost          int64
	ActualQuantity    int
	ActualCost        int64
	Notes             *string
}

// EstimatedCost is the planned spend for this line.
func (i BudgetPlanItem) EstimatedCost() int64 {
	return int64(i.EstimatedQuantity) * i.UnitCost
}

// BudgetPlan is a named spending plan over a date window with a ceiling and
// itemized expectations. Items are immutable after creation; revising a plan
// means creating a new one.
type BudgetPlan struct {
	ID          int
	Name        string
	Type        PlanType
	StartDate   time.Time
	EndDate     time.Time
	TotalBudget int64
	Status      PlanStatus
	CreatedBy   int
	CreatedAt   time.Time
	Items       []BudgetPlanItem
}

// NewBudgetPlan creates a plan in draft status with business validation applied.
func NewBudgetPlan(name string, planType PlanType, start, end time.Time, totalBudget int64, createdBy int, items []BudgetPlanItem) (*BudgetPlan, error) {
	start = DateOnly(start)
	end = DateOnly(end)

	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	if totalBudget <= 0 {
		return nil, ErrInvalidBudget
	}
	for _, item := range items {
		if item.EstimatedQuantity < 0 || item.UnitCost < 0 {
			return nil, ErrInvalidItem
		}
	}

	return &BudgetPlan{
		Name:        name,
		Type:        planType,
		StartDate:   start,
		EndDate:     end,
		TotalBudget: totalBudget,
		Status:      PlanStatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		Items:       items,
	}, nil
}

// EstimatedCost is the sum over items of estimated quantity times unit cost.
func (p *BudgetPlan) EstimatedCost() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.EstimatedCost()
	}
	return total
}

// ActualCost is the spend accumulated from fulfillment so far.
func (p *BudgetPlan) ActualCost() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.ActualCost
	}
	return total
}

// Variance is total budget minus actual cost; positive means under budget.
func (p *BudgetPlan) Variance() int64 {
	return p.TotalBudget - p.ActualCost()
}

// VariancePercentage is variance relative to estimated cost, in percent.
// Returns 0 when the estimated cost is zero.
func (p *BudgetPlan) VariancePercentage() float64 {
	estimated := p.EstimatedCost()
	if estimated == 0 {
		return 0
	}
	return float64(p.Variance()) / float64(estimated) * 100
}

var planTransitions = map[PlanStatus][]PlanStatus{
	PlanStatusDraft:     {PlanStatusActive, PlanStatusCancelled},
	PlanStatusActive:    {PlanStatusCompleted, PlanStatusCancelled},
	PlanStatusCompleted: {},
	PlanStatusCancelled: {},
}

// IsTerminal reports whether the plan has reached a final status.
func (p *BudgetPlan) IsTerminal() bool {
	return p.Status == PlanStatusCompleted || p.Status == PlanStatusCancelled
}

// CanTransitionTo checks the lifecycle graph without mutating the plan.
func (p *BudgetPlan) CanTransitionTo(target PlanStatus) bool {
	for _, s := range planTransitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the plan to the target status. Terminal plans reject
// every transition with ErrPlanClosed; anything else off the lifecycle graph
// fails with ErrInvalidTransition.
func (p *BudgetPlan) TransitionTo(target PlanStatus) error {
	if p.IsTerminal() {
		return ErrPlanClosed
	}
	if !p.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	p.Status = target
	return nil
}

// Covers reports whether the given date falls inside the plan window.
func (p *BudgetPlan) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// ItemForMeal returns the planned item for the meal, or nil when the meal was
// not planned. Actuals for unplanned meals are not tracked by this ledger.
func (p *BudgetPlan) ItemForMeal(mealID int) *BudgetPlanItem {
	for idx := range p.Items {
		if p.Items[idx].MealID == mealID {
			return &p.Items[idx]
		}
	}
	return nil
}
