package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/adapter/memory"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

func newTestService() *Service {
	catalog := memory.NewCatalogRepository(
		[]domain.MealCategory{{ID: 1, Name: "Main Course"}},
		[]domain.Meal{
			{ID: 1, CategoryID: 1, Name: "Plov", Price: 1200_00, IsActive: true},
			{ID: 2, CategoryID: 1, Name: "Samsa", Price: 450_00, IsActive: true},
		},
	)
	return NewService(memory.NewPlanRepository(), catalog, nil, logger.New("test"))
}

func marchPlan() interfaces.CreatePlanCommand {
	return interfaces.CreatePlanCommand{
		Name:        "March Lunch Plan",
		PlanType:    "monthly",
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalBudget: 50000_00,
		CreatedBy:   1,
		Items: []interfaces.CreatePlanItemCommand{
			{MealID: 1, EstimatedQuantity: 30, UnitCost: 1200_00},
			{MealID: 2, EstimatedQuantity: 50, UnitCost: 450_00},
		},
	}
}

func createActivePlan(t *testing.T, svc *Service) *domain.BudgetPlan {
	t.Helper()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, marchPlan())
	require.NoError(t, err)
	plan, err = svc.Transition(ctx, plan.ID, domain.PlanStatusActive)
	require.NoError(t, err)
	return plan
}

func TestService_CreatePlan(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	plan, err := svc.CreatePlan(ctx, marchPlan())
	require.NoError(t, err)

	assert.NotZero(t, plan.ID)
	assert.Equal(t, domain.PlanStatusDraft, plan.Status)
	assert.Equal(t, int64(30*1200_00+50*450_00), plan.EstimatedCost())
	// Item names are resolved from the catalog at creation.
	assert.Equal(t, "Plov", plan.Items[0].MealName)
}

func TestService_CreatePlan_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	t.Run("unknown meal", func(t *testing.T) {
		cmd := marchPlan()
		cmd.Items[0].MealID = 99
		_, err := svc.CreatePlan(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrMealNotFound)
	})

	t.Run("inverted window", func(t *testing.T) {
		cmd := marchPlan()
		cmd.StartDate, cmd.EndDate = cmd.EndDate, cmd.StartDate
		_, err := svc.CreatePlan(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})

	t.Run("non-positive budget", func(t *testing.T) {
		cmd := marchPlan()
		cmd.TotalBudget = -100
		_, err := svc.CreatePlan(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrInvalidBudget)
	})
}

func TestService_ListPlans(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_ = createActivePlan(t, svc)

	weekly := marchPlan()
	weekly.Name = "Snack Week"
	weekly.PlanType = "weekly"
	weekly.StartDate = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	weekly.EndDate = time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC)
	draft, err := svc.CreatePlan(ctx, weekly)
	require.NoError(t, err)

	all, err := svc.ListPlans(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := domain.PlanStatusActive
	actives, err := svc.ListPlans(ctx, &active, nil)
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, domain.PlanStatusActive, actives[0].Status)

	wk := domain.PlanTypeWeekly
	weeklies, err := svc.ListPlans(ctx, nil, &wk)
	require.NoError(t, err)
	require.Len(t, weeklies, 1)
	assert.Equal(t, draft.ID, weeklies[0].ID)

	// Both filters together can match nothing.
	none, err := svc.ListPlans(ctx, &active, &wk)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_Transition(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	plan, err := svc.CreatePlan(ctx, marchPlan())
	require.NoError(t, err)

	plan, err = svc.Transition(ctx, plan.ID, domain.PlanStatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusActive, plan.Status)

	// The new status must be durable, not just on the returned copy.
	stored, err := svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusActive, stored.Status)

	_, err = svc.Transition(ctx, plan.ID, domain.PlanStatusDraft)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Transition(ctx, plan.ID, domain.PlanStatusCompleted)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, plan.ID, domain.PlanStatusActive)
	assert.ErrorIs(t, err, domain.ErrPlanClosed)
}

func TestService_Transition_UnknownPlan(t *testing.T) {
	svc := newTestService()
	_, err := svc.Transition(context.Background(), 42, domain.PlanStatusActive)
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestService_RecordActual(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	plan := createActivePlan(t, svc)

	require.NoError(t, svc.RecordActual(ctx, plan.ID, 1, 5, 6000_00))
	require.NoError(t, svc.RecordActual(ctx, plan.ID, 1, 3, 3600_00))

	stored, err := svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Items[0].ActualQuantity)
	assert.Equal(t, int64(9600_00), stored.Items[0].ActualCost)
}

func TestService_RecordActual_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	t.Run("draft plan", func(t *testing.T) {
		plan, err := svc.CreatePlan(ctx, marchPlan())
		require.NoError(t, err)
		assert.ErrorIs(t, svc.RecordActual(ctx, plan.ID, 1, 1, 100), domain.ErrPlanNotActive)
	})

	t.Run("unplanned meal", func(t *testing.T) {
		plan := createActivePlan(t, svc)
		assert.ErrorIs(t, svc.RecordActual(ctx, plan.ID, 99, 1, 100), domain.ErrItemNotFound)
	})

	t.Run("negative input rejected before any lookup", func(t *testing.T) {
		assert.ErrorIs(t, svc.RecordActual(ctx, 999, 1, -1, 100), domain.ErrInvalidItem)
		assert.ErrorIs(t, svc.RecordActual(ctx, 999, 1, 1, -100), domain.ErrInvalidItem)
	})
}

func TestService_GetVariance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	plan := createActivePlan(t, svc)

	require.NoError(t, svc.RecordActual(ctx, plan.ID, 1, 10, 12000_00))

	report, err := svc.GetVariance(ctx, plan.ID)
	require.NoError(t, err)

	assert.Equal(t, plan.ID, report.PlanID)
	assert.Equal(t, int64(30*1200_00+50*450_00), report.EstimatedCost)
	assert.Equal(t, int64(12000_00), report.ActualCost)
	assert.Equal(t, int64(50000_00-12000_00), report.Variance)
	assert.InDelta(t,
		float64(50000_00-12000_00)/float64(30*1200_00+50*450_00)*100,
		report.VariancePercentage, 0.001)
}

func TestService_ApplyFulfillment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	plan := createActivePlan(t, svc)

	inWindow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	applied, err := svc.ApplyFulfillment(ctx, inWindow, 1, 2, 2400_00)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	stored, err := svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Items[0].ActualQuantity)
	assert.Equal(t, int64(2400_00), stored.Items[0].ActualCost)

	t.Run("outside the window", func(t *testing.T) {
		applied, err := svc.ApplyFulfillment(ctx, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 1, 1, 1200_00)
		require.NoError(t, err)
		assert.Zero(t, applied)
	})

	t.Run("unplanned meal is skipped", func(t *testing.T) {
		applied, err := svc.ApplyFulfillment(ctx, inWindow, 99, 1, 500)
		require.NoError(t, err)
		assert.Zero(t, applied)
	})
}

func TestService_ApplyCancellation_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	plan := createActivePlan(t, svc)

	inWindow := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.ApplyFulfillment(ctx, inWindow, 1, 2, 2400_00)
	require.NoError(t, err)

	// Cancel more than was ever fulfilled; the ledger floors at zero rather
	// than going negative.
	applied, err := svc.ApplyCancellation(ctx, inWindow, 1, 5, 6000_00)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	stored, err := svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Items[0].ActualQuantity)
	assert.Equal(t, int64(0), stored.Items[0].ActualCost)
}

func TestService_CloseExpired(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	expired := createActivePlan(t, svc)

	current := marchPlan()
	current.Name = "April Plan"
	current.StartDate = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	current.EndDate = time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	currentPlan, err := svc.CreatePlan(ctx, current)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, currentPlan.ID, domain.PlanStatusActive)
	require.NoError(t, err)

	closed, err := svc.CloseExpired(ctx, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	stored, err := svc.GetPlan(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusCompleted, stored.Status)

	stillActive, err := svc.GetPlan(ctx, currentPlan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusActive, stillActive.Status)
}
