package reporting

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

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	orders interfaces.OrderRepository
	plans  interfaces.PlanRepository
}

func newFixture(t *testing.T, categories ...string) *fixture {
	t.Helper()

	cats := make([]domain.MealCategory, len(categories))
	for i, name := range categories {
		cats[i] = domain.MealCategory{ID: i + 1, Name: name}
	}
	catalog := memory.NewCatalogRepository(cats, nil)

	orders := memory.NewOrderRepository()
	plans := memory.NewPlanRepository()

	svc := NewService(orders, plans, catalog, logger.New("test"))
	svc.now = func() time.Time { return testNow }

	return &fixture{svc: svc, orders: orders, plans: plans}
}

func (f *fixture) record(t *testing.T, o domain.FulfilledOrder) {
	t.Helper()
	require.NoError(t, f.orders.Record(context.Background(), &o))
}

func order(studentID int, meal, category string, mealTime domain.MealTime, qty int, amount int64, day time.Time) domain.FulfilledOrder {
	return domain.FulfilledOrder{
		MealName:  meal,
		Category:  category,
		MealTime:  mealTime,
		StudentID: studentID,
		Quantity:  qty,
		Amount:    amount,
		Date:      day,
	}
}

func TestDashboard_PeriodClamped(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Dashboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PeriodDays)
	assert.Len(t, report.RevenueByDay, 1)

	report, err = f.svc.Dashboard(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 365, report.PeriodDays)
	assert.Len(t, report.RevenueByDay, 365)
}

func TestDashboard_RevenueByDay(t *testing.T) {
	f := newFixture(t)

	f.record(t, order(1, "Plov", "Main Course", domain.MealTimeLunch, 1, 1200_00, testNow))
	f.record(t, order(2, "Plov", "Main Course", domain.MealTimeLunch, 2, 2400_00, testNow.AddDate(0, 0, -5)))
	// Before the window; must not appear anywhere in the report.
	f.record(t, order(3, "Plov", "Main Course", domain.MealTimeLunch, 1, 1200_00, testNow.AddDate(0, 0, -20)))

	report, err := f.svc.Dashboard(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, report.RevenueByDay, 7)
	assert.Equal(t, "2026-03-04", report.RevenueByDay[0].Date)
	assert.Equal(t, "2026-03-10", report.RevenueByDay[6].Date)

	// 03-05 carries the older order, 03-10 the recent one, the rest are zero.
	assert.Equal(t, int64(2400_00), report.RevenueByDay[1].Revenue)
	assert.Equal(t, 1, report.RevenueByDay[1].Orders)
	assert.Equal(t, int64(1200_00), report.RevenueByDay[6].Revenue)
	for _, i := range []int{0, 2, 3, 4, 5} {
		assert.Zero(t, report.RevenueByDay[i].Revenue, report.RevenueByDay[i].Date)
		assert.Zero(t, report.RevenueByDay[i].Orders)
	}

	assert.Equal(t, int64(3600_00), report.TotalRevenue)
	assert.Equal(t, 2, report.TotalOrders)
	assert.Equal(t, 2, report.ActiveStudents)
}

func TestDashboard_PopularMeals(t *testing.T) {
	f := newFixture(t)

	f.record(t, order(1, "Plov", "Main Course", domain.MealTimeLunch, 1, 1200_00, testNow))
	f.record(t, order(2, "Plov", "Main Course", domain.MealTimeLunch, 2, 2400_00, testNow))
	f.record(t, order(1, "Samsa", "Snacks", domain.MealTimeSnack, 1, 450_00, testNow))
	f.record(t, order(2, "Lagman", "Main Course", domain.MealTimeDinner, 1, 1100_00, testNow))

	report, err := f.svc.Dashboard(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, report.PopularMeals, 3)
	assert.Equal(t, "Plov", report.PopularMeals[0].Name)
	assert.Equal(t, 2, report.PopularMeals[0].OrderCount)
	assert.Equal(t, 3, report.PopularMeals[0].TotalQuantity)
	assert.Equal(t, int64(3600_00), report.PopularMeals[0].Revenue)

	// One order each: ties resolve by name so the ranking is deterministic.
	assert.Equal(t, "Lagman", report.PopularMeals[1].Name)
	assert.Equal(t, "Samsa", report.PopularMeals[2].Name)
}

func TestDashboard_OrdersByMealTime(t *testing.T) {
	f := newFixture(t)

	f.record(t, order(1, "Plov", "Main Course", domain.MealTimeLunch, 1, 1200_00, testNow))
	f.record(t, order(2, "Plov", "Main Course", domain.MealTimeLunch, 1, 1200_00, testNow))

	report, err := f.svc.Dashboard(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, report.OrdersByMealTime, 4)
	assert.Equal(t, domain.MealTimeBreakfast, report.OrdersByMealTime[0].MealTime)
	assert.Equal(t, domain.MealTimeLunch, report.OrdersByMealTime[1].MealTime)
	assert.Equal(t, 2, report.OrdersByMealTime[1].Count)
	assert.Equal(t, int64(2400_00), report.OrdersByMealTime[1].Revenue)

	// Meal times without orders still appear with zero values.
	assert.Zero(t, report.OrdersByMealTime[0].Count)
	assert.Zero(t, report.OrdersByMealTime[2].Count)
	assert.Zero(t, report.OrdersByMealTime[3].Count)
}

func TestInsights_OverallStats(t *testing.T) {
	f := newFixture(t)

	f.record(t, order(1, "Plov", "Main Course", domain.MealTimeLunch, 1, 1000, testNow))
	f.record(t, order(1, "Plov", "Main Course", domain.MealTimeLunch, 1, 2000, testNow))
	f.record(t, order(2, "Plov", "Main Course", domain.MealTimeLunch, 1, 3000, testNow))

	report, err := f.svc.Insights(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, 3, report.OverallStats.TotalOrders)
	assert.Equal(t, 2, report.OverallStats.UniqueStudents)
	assert.Equal(t, int64(6000), report.OverallStats.TotalRevenue)
	assert.Equal(t, int64(2000), report.OverallStats.AvgOrderValue)
}

func TestInsights_MonthlyTrends(t *testing.T) {
	f := newFixture(t)

	// Window of 40 days ending 2026-03-10 spans January through March.
	f.record(t, order(1, "Plov", "Main Course", domain.MealTimeLunch, 1, 1200_00, testNow))
	f.record(t, order(2, "Plov", "Main Course", domain.MealTimeLunch, 1, 1200_00, testNow))
	f.record(t, order(1, "Samsa", "Snacks", domain.MealTimeSnack, 1, 450_00, testNow.AddDate(0, 0, -20)))

	report, err := f.svc.Insights(context.Background(), 40)
	require.NoError(t, err)

	require.Len(t, report.MonthlyTrends, 3)
	jan, feb, mar := report.MonthlyTrends[0], report.MonthlyTrends[1], report.MonthlyTrends[2]

	assert.Equal(t, "2026-01", jan.Month)
	assert.Zero(t, jan.Orders)
	assert.Zero(t, jan.ActiveStudents)

	assert.Equal(t, "2026-02", feb.Month)
	assert.Equal(t, 1, feb.Orders)
	assert.Equal(t, int64(450_00), feb.Revenue)
	assert.Equal(t, 1, feb.ActiveStudents)

	assert.Equal(t, "2026-03", mar.Month)
	assert.Equal(t, 2, mar.Orders)
	assert.Equal(t, int64(2400_00), mar.Revenue)
	assert.Equal(t, 2, mar.ActiveStudents)
}

func TestInsights_EngagementBands(t *testing.T) {
	f := newFixture(t)

	// student 1 spends 30.00 (low), student 2 spends 100.00 (medium),
	// students 3 and 4 spend 250.00 and 350.00 (high).
	f.record(t, order(1, "Tea", "Beverages", domain.MealTimeBreakfast, 1, 30_00, testNow))
	f.record(t, order(2, "Plov", "Main Course", domain.MealTimeLunch, 1, 100_00, testNow))
	f.record(t, order(3, "Plov", "Main Course", domain.MealTimeLunch, 1, 250_00, testNow))
	f.record(t, order(4, "Plov", "Main Course", domain.MealTimeLunch, 1, 150_00, testNow))
	f.record(t, order(4, "Plov", "Main Course", domain.MealTimeLunch, 1, 200_00, testNow))

	report, err := f.svc.Insights(context.Background(), 30)
	require.NoError(t, err)

	require.Len(t, report.StudentEngagement, 3)

	low, medium, high := report.StudentEngagement[0], report.StudentEngagement[1], report.StudentEngagement[2]
	assert.Equal(t, "low", low.Level)
	assert.Equal(t, 1, low.StudentCount)
	assert.Equal(t, int64(30_00), low.AvgSpent)

	assert.Equal(t, "medium", medium.Level)
	assert.Equal(t, 1, medium.StudentCount)

	assert.Equal(t, "high", high.Level)
	assert.Equal(t, 2, high.StudentCount)
	assert.Equal(t, int64(300_00), high.AvgSpent)
}

func TestInsights_EngagementBands_EmptyBandsEmitted(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Insights(context.Background(), 30)
	require.NoError(t, err)

	require.Len(t, report.StudentEngagement, 3)
	for _, band := range report.StudentEngagement {
		assert.Zero(t, band.StudentCount, band.Level)
		assert.Zero(t, band.AvgSpent, band.Level)
	}
}

func TestInsights_RevenueByCategory(t *testing.T) {
	f := newFixture(t, "Beverages", "Main Course", "Snacks")

	f.record(t, order(1, "Plov", "Main Course", domain.MealTimeLunch, 1, 600_00, testNow))
	f.record(t, order(2, "Tea", "Beverages", domain.MealTimeBreakfast, 1, 400_00, testNow))

	report, err := f.svc.Insights(context.Background(), 30)
	require.NoError(t, err)

	require.Len(t, report.RevenueByCategory, 3)

	byName := make(map[string]interfaces.CategoryRevenue)
	var totalPct float64
	for _, c := range report.RevenueByCategory {
		byName[c.CategoryName] = c
		totalPct += c.Percentage
	}

	assert.InDelta(t, 60.0, byName["Main Course"].Percentage, 0.001)
	assert.InDelta(t, 40.0, byName["Beverages"].Percentage, 0.001)
	assert.Zero(t, byName["Snacks"].Revenue)
	assert.Zero(t, byName["Snacks"].Percentage)
	assert.InDelta(t, 100.0, totalPct, 0.01)
}

func TestInsights_RevenueByCategory_ZeroRevenue(t *testing.T) {
	f := newFixture(t, "Main Course")

	report, err := f.svc.Insights(context.Background(), 30)
	require.NoError(t, err)

	require.Len(t, report.RevenueByCategory, 1)
	assert.Zero(t, report.RevenueByCategory[0].Percentage)
}

func TestInsights_BudgetAnalysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inWindow, err := domain.NewBudgetPlan("March Plan", domain.PlanTypeMonthly,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		10000, 1, nil)
	require.NoError(t, err)
	require.NoError(t, f.plans.Create(ctx, inWindow))

	outside, err := domain.NewBudgetPlan("June Plan", domain.PlanTypeMonthly,
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		10000, 1, nil)
	require.NoError(t, err)
	require.NoError(t, f.plans.Create(ctx, outside))

	report, err := f.svc.Insights(ctx, 30)
	require.NoError(t, err)

	require.Len(t, report.BudgetAnalysis, 1)
	assert.Equal(t, inWindow.ID, report.BudgetAnalysis[0].PlanID)
	assert.Equal(t, "March Plan", report.BudgetAnalysis[0].PlanName)
}
