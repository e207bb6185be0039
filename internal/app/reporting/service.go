// Package reporting implements the aggregation engine: read-only rollups
// over ledger state and raw fulfillment history.
package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/app/budget"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

// Lookback windows are clamped to keep report queries bounded.
const (
	MinPeriodDays = 1
	MaxPeriodDays = 365
)

// Spend thresholds for engagement bands, in the smallest currency unit.
const (
	lowSpendCeiling    = 50_00
	mediumSpendCeiling = 200_00
)

var engagementLevels = []string{"low", "medium", "high"}

type Service struct {
	orders  interfaces.OrderRepository
	plans   interfaces.PlanRepository
	catalog interfaces.CatalogRepository
	logger  logger.Logger

	now func() time.Time
}

func NewService(orders interfaces.OrderRepository, plans interfaces.PlanRepository, catalog interfaces.CatalogRepository, logger logger.Logger) *Service {
	return &Service{
		orders:  orders,
		plans:   plans,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// Dashboard builds the cafeteria rollup for the trailing period. Reads run
// unsynchronized against ledger writers; the report is a point-in-time
// snapshot, not a transaction.
func (s *Service) Dashboard(ctx context.Context, periodDays int) (*interfaces.DashboardReport, error) {
	periodDays = clampPeriod(periodDays)
	from, to := s.window(periodDays)

	orders, err := s.orders.ListFulfilledSince(ctx, from)
	if err != nil {
		return nil, err
	}

	report := &interfaces.DashboardReport{
		RevenueByDay:     revenueByDay(orders, from, periodDays),
		PopularMeals:     popularMeals(orders),
		OrdersByMealTime: ordersByMealTime(orders),
		PeriodDays:       periodDays,
	}

	students := make(map[int]struct{})
	for _, o := range orders {
		report.TotalRevenue += o.Amount
		report.TotalOrders++
		students[o.StudentID] = struct{}{}
	}
	report.ActiveStudents = len(students)

	s.logger.Debug("dashboard_built", "Dashboard report built", "", map[string]interface{}{
		"period_days": periodDays,
		"orders":      report.TotalOrders,
		"to":          to.Format("2006-01-02"),
	})

	return report, nil
}

// Insights builds the university-wide rollup for the trailing period.
func (s *Service) Insights(ctx context.Context, periodDays int) (*interfaces.InsightsReport, error) {
	periodDays = clampPeriod(periodDays)
	from, to := s.window(periodDays)

	orders, err := s.orders.ListFulfilledSince(ctx, from)
	if err != nil {
		return nil, err
	}

	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	plans, err := s.plans.ListIntersecting(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &interfaces.InsightsReport{
		OverallStats:      overallStats(orders),
		MonthlyTrends:     monthlyTrends(orders, from, to),
		StudentEngagement: engagementBands(orders),
		RevenueByCategory: revenueByCategory(orders, categories),
		BudgetAnalysis:    budgetAnalysis(plans),
		PeriodDays:        periodDays,
	}

	return report, nil
}

// window returns [from, to] where to is today and from is periodDays-1 days
// earlier, both at midnight UTC.
func (s *Service) window(periodDays int) (time.Time, time.Time) {
	to := domain.DateOnly(s.now())
	from := to.AddDate(0, 0, -(periodDays - 1))
	return from, to
}

func clampPeriod(days int) int {
	if days < MinPeriodDays {
		return MinPeriodDays
	}
	if days > MaxPeriodDays {
		return MaxPeriodDays
	}
	return days
}

// revenueByDay buckets order totals by calendar day. The series always has
// exactly periodDays entries; days without orders carry zero values so chart
// axes stay contiguous.
func revenueByDay(orders []*domain.FulfilledOrder, from time.Time, periodDays int) []interfaces.DayBucket {
	index := make(map[string]int, periodDays)
	series := make([]interfaces.DayBucket, periodDays)
	for i := 0; i < periodDays; i++ {
		date := from.AddDate(0, 0, i).Format("2006-01-02")
		series[i] = interfaces.DayBucket{Date: date}
		index[date] = i
	}

	for _, o := range orders {
		i, ok := index[o.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		series[i].Revenue += o.Amount
		series[i].Orders++
	}
	return series
}

// popularMeals ranks meals by order count descending, ties broken by name
// ascending so the ordering is deterministic regardless of input order.
func popularMeals(orders []*domain.FulfilledOrder) []interfaces.MealPopularity {
	byMeal := make(map[string]*interfaces.MealPopularity)
	for _, o := range orders {
		p, ok := byMeal[o.MealName]
		if !ok {
			p = &interfaces.MealPopularity{Name: o.MealName}
			byMeal[o.MealName] = p
		}
		p.OrderCount++
		p.TotalQuantity += o.Quantity
		p.Revenue += o.Amount
	}

	out := make([]interfaces.MealPopularity, 0, len(byMeal))
	for _, p := range byMeal {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderCount != out[j].OrderCount {
			return out[i].OrderCount > out[j].OrderCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ordersByMealTime groups count and revenue by the four meal time
// categories; categories with zero orders are still emitted.
func ordersByMealTime(orders []*domain.FulfilledOrder) []interfaces.MealTimeBucket {
	index := make(map[domain.MealTime]int, len(domain.MealTimes))
	out := make([]interfaces.MealTimeBucket, len(domain.MealTimes))
	for i, mt := range domain.MealTimes {
		out[i] = interfaces.MealTimeBucket{MealTime: mt}
		index[mt] = i
	}

	for _, o := range orders {
		i, ok := index[o.MealTime]
		if !ok {
			continue
		}
		out[i].Count++
		out[i].Revenue += o.Amount
	}
	return out
}

// monthlyTrends buckets orders by calendar month. Every month touched by the
// window is emitted, zero months included, so trend charts stay contiguous.
func monthlyTrends(orders []*domain.FulfilledOrder, from, to time.Time) []interfaces.MonthBucket {
	index := make(map[string]int)
	var out []interfaces.MonthBucket
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		index[key] = len(out)
		out = append(out, interfaces.MonthBucket{Month: key})
	}

	students := make([]map[int]struct{}, len(out))
	for i := range students {
		students[i] = make(map[int]struct{})
	}
	for _, o := range orders {
		i, ok := index[o.Date.Format("2006-01")]
		if !ok {
			continue
		}
		out[i].Orders++
		out[i].Revenue += o.Amount
		students[i][o.StudentID] = struct{}{}
	}
	for i := range out {
		out[i].ActiveStudents = len(students[i])
	}
	return out
}

func overallStats(orders []*domain.FulfilledOrder) interfaces.OverallStats {
	stats := interfaces.OverallStats{}
	students := make(map[int]struct{})
	for _, o := range orders {
		stats.TotalOrders++
		stats.TotalRevenue += o.Amount
		students[o.StudentID] = struct{}{}
	}
	stats.UniqueStudents = len(students)
	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / int64(stats.TotalOrders)
	}
	return stats
}

// engagementBands partitions students into low/medium/high bands by total
// spend within the window. Every student lands in exactly one band; all
// three bands are emitted even when empty.
func engagementBands(orders []*domain.FulfilledOrder) []interfaces.EngagementBand {
	spend := make(map[int]int64)
	for _, o := range orders {
		spend[o.StudentID] += o.Amount
	}

	counts := make(map[string]int, len(engagementLevels))
	totals := make(map[string]int64, len(engagementLevels))
	for _, total := range spend {
		level := levelFor(total)
		counts[level]++
		totals[level] += total
	}

	out := make([]interfaces.EngagementBand, len(engagementLevels))
	for i, level := range engagementLevels {
		band := interfaces.EngagementBand{Level: level, StudentCount: counts[level]}
		if band.StudentCount > 0 {
			band.AvgSpent = totals[level] / int64(band.StudentCount)
		}
		out[i] = band
	}
	return out
}

func levelFor(totalSpend int64) string {
	switch {
	case totalSpend < lowSpendCeiling:
		return "low"
	case totalSpend < mediumSpendCeiling:
		return "medium"
	default:
		return "high"
	}
}

// revenueByCategory computes each category's share of total revenue. All
// catalog categories are emitted; with zero total revenue every share is 0
// rather than a division by zero.
func revenueByCategory(orders []*domain.FulfilledOrder, categories []*domain.MealCategory) []interfaces.CategoryRevenue {
	revenue := make(map[string]int64)
	var total int64
	for _, o := range orders {
		revenue[o.Category] += o.Amount
		total += o.Amount
	}

	names := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
		seen[c.Name] = struct{}{}
	}
	// Orders can reference categories removed from the catalog since.
	for name := range revenue {
		if _, ok := seen[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]interfaces.CategoryRevenue, 0, len(names))
	for _, name := range names {
		entry := interfaces.CategoryRevenue{CategoryName: name, Revenue: revenue[name]}
		if total > 0 {
			entry.Percentage = float64(entry.Revenue) / float64(total) * 100
		}
		out = append(out, entry)
	}
	return out
}

func budgetAnalysis(plans []*domain.BudgetPlan) []interfaces.VarianceReport {
	out := make([]interfaces.VarianceReport, 0, len(plans))
	for _, plan := range plans {
		out = append(out, *budget.VarianceOf(plan))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanID < out[j].PlanID })
	return out
}
