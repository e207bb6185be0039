package http

import (
	"net/http"
	"strconv"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type ReportingHandler struct {
	service                interfaces.ReportingService
	defaultDashboardPeriod int
	defaultInsightsPeriod  int
	logger                 logger.Logger
}

func NewReportingHandler(service interfaces.ReportingService, defaultDashboardPeriod, defaultInsightsPeriod int, logger logger.Logger) *ReportingHandler {
	return &ReportingHandler{
		service:                service,
		defaultDashboardPeriod: defaultDashboardPeriod,
		defaultInsightsPeriod:  defaultInsightsPeriod,
		logger:                 logger,
	}
}

type DayBucketResponse struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
	Orders  int    `json:"orders"`
}

type PopularMealResponse struct {
	Name          string `json:"name"`
	OrderCount    int    `json:"order_count"`
	TotalQuantity int    `json:"total_quantity"`
	Revenue       int64  `json:"revenue"`
}

type MealTimeBucketResponse struct {
	MealTime string `json:"meal_time"`
	Count    int    `json:"count"`
	Revenue  int64  `json:"revenue"`
}

type DashboardResponse struct {
	TotalRevenue     int64                    `json:"total_revenue"`
	TotalOrders      int                      `json:"total_orders"`
	ActiveStudents   int                      `json:"active_students"`
	RevenueByDay     []DayBucketResponse      `json:"revenue_by_day"`
	PopularMeals     []PopularMealResponse    `json:"popular_meals"`
	OrdersByMealTime []MealTimeBucketResponse `json:"orders_by_meal_time"`
	PeriodDays       int                      `json:"period_days"`
}

type OverallStatsResponse struct {
	TotalOrders    int   `json:"total_orders"`
	UniqueStudents int   `json:"unique_students"`
	TotalRevenue   int64 `json:"total_revenue"`
	AvgOrderValue  int64 `json:"avg_order_value"`
}

type EngagementBandResponse struct {
	EngagementLevel string `json:"engagement_level"`
	StudentCount    int    `json:"student_count"`
	AvgSpent        int64  `json:"avg_spent"`
}

type CategoryRevenueResponse struct {
	CategoryName string  `json:"category_name"`
	Revenue      int64   `json:"revenue"`
	Percentage   float64 `json:"percentage"`
}

type MonthlyTrendResponse struct {
	Month          string `json:"month"`
	Orders         int    `json:"orders"`
	Revenue        int64  `json:"revenue"`
	ActiveStudents int    `json:"active_students"`
}

type InsightsResponse struct {
	OverallStats      OverallStatsResponse      `json:"overall_stats"`
	MonthlyTrends     []MonthlyTrendResponse    `json:"monthly_trends"`
	StudentEngagement []EngagementBandResponse  `json:"student_engagement"`
	RevenueByCategory []CategoryRevenueResponse `json:"revenue_by_category"`
	BudgetAnalysis    []VarianceResponse        `json:"budget_analysis"`
	PeriodDays        int                       `json:"period_days"`
}

func (h *ReportingHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorize(w, r, domain.CapViewDashboard) {
		return
	}

	period, ok := h.period(w, r, h.defaultDashboardPeriod)
	if !ok {
		return
	}
	report, err := h.service.Dashboard(r.Context(), period)
	if err != nil {
		h.logger.Error("dashboard_failed", "Failed to build dashboard", "", nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := DashboardResponse{
		TotalRevenue:   report.TotalRevenue,
		TotalOrders:    report.TotalOrders,
		ActiveStudents: report.ActiveStudents,
		PeriodDays:     report.PeriodDays,
	}
	for _, b := range report.RevenueByDay {
		resp.RevenueByDay = append(resp.RevenueByDay, DayBucketResponse{Date: b.Date, Revenue: b.Revenue, Orders: b.Orders})
	}
	for _, m := range report.PopularMeals {
		resp.PopularMeals = append(resp.PopularMeals, PopularMealResponse{
			Name: m.Name, OrderCount: m.OrderCount, TotalQuantity: m.TotalQuantity, Revenue: m.Revenue,
		})
	}
	for _, b := range report.OrdersByMealTime {
		resp.OrdersByMealTime = append(resp.OrdersByMealTime, MealTimeBucketResponse{
			MealTime: string(b.MealTime), Count: b.Count, Revenue: b.Revenue,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *ReportingHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorize(w, r, domain.CapViewInsights) {
		return
	}

	period, ok := h.period(w, r, h.defaultInsightsPeriod)
	if !ok {
		return
	}
	report, err := h.service.Insights(r.Context(), period)
	if err != nil {
		h.logger.Error("insights_failed", "Failed to build insights", "", nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := InsightsResponse{
		OverallStats: OverallStatsResponse{
			TotalOrders:    report.OverallStats.TotalOrders,
			UniqueStudents: report.OverallStats.UniqueStudents,
			TotalRevenue:   report.OverallStats.TotalRevenue,
			AvgOrderValue:  report.OverallStats.AvgOrderValue,
		},
		PeriodDays: report.PeriodDays,
	}
	for _, m := range report.MonthlyTrends {
		resp.MonthlyTrends = append(resp.MonthlyTrends, MonthlyTrendResponse{
			Month: m.Month, Orders: m.Orders, Revenue: m.Revenue, ActiveStudents: m.ActiveStudents,
		})
	}
	for _, b := range report.StudentEngagement {
		resp.StudentEngagement = append(resp.StudentEngagement, EngagementBandResponse{
			EngagementLevel: b.Level, StudentCount: b.StudentCount, AvgSpent: b.AvgSpent,
		})
	}
	for _, c := range report.RevenueByCategory {
		resp.RevenueByCategory = append(resp.RevenueByCategory, CategoryRevenueResponse{
			CategoryName: c.CategoryName, Revenue: c.Revenue, Percentage: c.Percentage,
		})
	}
	for _, v := range report.BudgetAnalysis {
		resp.BudgetAnalysis = append(resp.BudgetAnalysis, VarianceResponse{
			PlanID:             v.PlanID,
			PlanName:           v.PlanName,
			EstimatedCost:      v.EstimatedCost,
			ActualCost:         v.ActualCost,
			Variance:           v.Variance,
			VariancePercentage: v.VariancePercentage,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// period resolves ?period=, defaulting when absent. Malformed values are a
// client error; out-of-range numbers are clamped by the reporting service.
func (h *ReportingHandler) period(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	v := r.URL.Query().Get("period")
	if v == "" {
		return fallback, true
	}
	period, err := strconv.Atoi(v)
	if err != nil {
		respondError(w, "period must be a number of days", http.StatusBadRequest)
		return 0, false
	}
	return period, true
}
