package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestPlan(t *testing.T, items []BudgetPlanItem) *BudgetPlan {
	t.Helper()
	plan, err := NewBudgetPlan("March Lunch Plan", PlanTypeMonthly,
		date(2026, 3, 1), date(2026, 3, 31), 50000_00, 1, items)
	require.NoError(t, err)
	return plan
}

func TestNewBudgetPlan_Validation(t *testing.T) {
	t.Run("end before start", func(t *testing.T) {
		_, err := NewBudgetPlan("bad", PlanTypeWeekly,
			date(2026, 3, 10), date(2026, 3, 3), 1000, 1, nil)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("single day window is valid", func(t *testing.T) {
		plan, err := NewBudgetPlan("one day", PlanTypeWeekly,
			date(2026, 3, 10), date(2026, 3, 10), 1000, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, PlanStatusDraft, plan.Status)
	})

	t.Run("zero budget", func(t *testing.T) {
		_, err := NewBudgetPlan("bad", PlanTypeWeekly,
			date(2026, 3, 1), date(2026, 3, 7), 0, 1, nil)
		assert.ErrorIs(t, err, ErrInvalidBudget)
	})

	t.Run("negative item quantity", func(t *testing.T) {
		_, err := NewBudgetPlan("bad", PlanTypeWeekly,
			date(2026, 3, 1), date(2026, 3, 7), 1000, 1,
			[]BudgetPlanItem{{MealID: 1, EstimatedQuantity: -1, UnitCost: 100}})
		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	t.Run("dates normalized to midnight UTC", func(t *testing.T) {
		plan, err := NewBudgetPlan("tz", PlanTypeWeekly,
			time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC),
			time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC), 1000, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, date(2026, 3, 1), plan.StartDate)
		assert.Equal(t, date(2026, 3, 7), plan.EndDate)
	})
}

func TestBudgetPlan_Costs(t *testing.T) {
	plan := newTestPlan(t, []BudgetPlanItem{
		{MealID: 1, EstimatedQuantity: 10, UnitCost: 2000},
		{MealID: 2, EstimatedQuantity: 5, UnitCost: 1500},
	})

	assert.Equal(t, int64(27500), plan.EstimatedCost())
	assert.Equal(t, int64(0), plan.ActualCost())

	plan.Items[0].ActualCost = 18000
	plan.Items[1].ActualCost = 9000
	assert.Equal(t, int64(27000), plan.ActualCost())
	assert.Equal(t, plan.TotalBudget-27000, plan.Variance())
}

func TestBudgetPlan_VariancePercentage(t *testing.T) {
	plan := newTestPlan(t, []BudgetPlanItem{
		{MealID: 1, EstimatedQuantity: 10, UnitCost: 2000},
	})
	plan.TotalBudget = 40000
	plan.Items[0].ActualCost = 30000

	// variance 10000 over estimated 20000
	assert.InDelta(t, 50.0, plan.VariancePercentage(), 0.001)
}

func TestBudgetPlan_VariancePercentage_ZeroEstimate(t *testing.T) {
	plan := newTestPlan(t, nil)
	assert.Equal(t, 0.0, plan.VariancePercentage())
}

func TestBudgetPlan_Lifecycle(t *testing.T) {
	t.Run("draft to active to completed", func(t *testing.T) {
		plan := newTestPlan(t, nil)
		require.NoError(t, plan.TransitionTo(PlanStatusActive))
		require.NoError(t, plan.TransitionTo(PlanStatusCompleted))
		assert.True(t, plan.IsTerminal())
	})

	t.Run("draft to cancelled", func(t *testing.T) {
		plan := newTestPlan(t, nil)
		require.NoError(t, plan.TransitionTo(PlanStatusCancelled))
		assert.True(t, plan.IsTerminal())
	})

	t.Run("draft to completed is off the graph", func(t *testing.T) {
		plan := newTestPlan(t, nil)
		assert.ErrorIs(t, plan.TransitionTo(PlanStatusCompleted), ErrInvalidTransition)
		assert.Equal(t, PlanStatusDraft, plan.Status)
	})

	t.Run("terminal plans reject everything", func(t *testing.T) {
		plan := newTestPlan(t, nil)
		require.NoError(t, plan.TransitionTo(PlanStatusActive))
		require.NoError(t, plan.TransitionTo(PlanStatusCompleted))

		assert.ErrorIs(t, plan.TransitionTo(PlanStatusActive), ErrPlanClosed)
		assert.ErrorIs(t, plan.TransitionTo(PlanStatusCancelled), ErrPlanClosed)
	})

	t.Run("self transition is rejected", func(t *testing.T) {
		plan := newTestPlan(t, nil)
		assert.ErrorIs(t, plan.TransitionTo(PlanStatusDraft), ErrInvalidTransition)
	})
}

func TestBudgetPlan_Covers(t *testing.T) {
	plan := newTestPlan(t, nil)

	assert.True(t, plan.Covers(date(2026, 3, 1)))
	assert.True(t, plan.Covers(date(2026, 3, 31)))
	assert.True(t, plan.Covers(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)))
	assert.False(t, plan.Covers(date(2026, 2, 28)))
	assert.False(t, plan.Covers(date(2026, 4, 1)))
}

func TestBudgetPlan_ItemForMeal(t *testing.T) {
	plan := newTestPlan(t, []BudgetPlanItem{
		{MealID: 7, EstimatedQuantity: 3, UnitCost: 100},
	})

	item := plan.ItemForMeal(7)
	require.NotNil(t, item)

	// Returned pointer aliases the plan's item so actuals can accumulate.
	item.ActualQuantity = 2
	assert.Equal(t, 2, plan.Items[0].ActualQuantity)

	assert.Nil(t, plan.ItemForMeal(99))
}
