package interfaces

import (
	"context"
	"iter"
	"time"

	"github.com/campusmess/emess/internal/domain"
)

// Service contracts (Business Logic)

type SchedulingService interface {
	CreateSlot(ctx context.Context, cmd CreateSlotCommand) (*domain.ScheduleSlot, error)
	GetSlot(ctx context.Context, slotID int) (*SlotView, error)
	Reserve(ctx context.Context, slotID, quantity int) (remaining int, err error)
	Release(ctx context.Context, slotID, quantity int) (remaining int, err error)
	DeleteSlot(ctx context.Context, slotID int) error

	// Query yields the slots for a date (optionally narrowed to one meal
	// time), each annotated with remaining capacity. The sequence is
	// restartable: every range re-reads the ledger.
	Query(ctx context.Context, date time.Time, mealTime *domain.MealTime) iter.Seq2[*SlotView, error]
}

type BudgetService interface {
	CreatePlan(ctx context.Context, cmd CreatePlanCommand) (*domain.BudgetPlan, error)
	GetPlan(ctx context.Context, planID int) (*domain.BudgetPlan, error)

	// ListPlans returns plans filtered by the optional status and plan type.
	ListPlans(ctx context.Context, status *domain.PlanStatus, planType *domain.PlanType) ([]*domain.BudgetPlan, error)
	Transition(ctx context.Context, planID int, target domain.PlanStatus) (*domain.BudgetPlan, error)
	RecordActual(ctx context.Context, planID, mealID, quantity int, cost int64) error
	GetVariance(ctx context.Context, planID int) (*VarianceReport, error)

	// ApplyFulfillment routes one fulfillment event to every active plan
	// covering the date that planned the meal. Returns the number of plans
	// updated; zero is not an error (unplanned meals are out of scope).
	ApplyFulfillment(ctx context.Context, date time.Time, mealID, quantity int, cost int64) (int, error)

	// ApplyCancellation compensates a cancelled fulfillment the same way.
	ApplyCancellation(ctx context.Context, date time.Time, mealID, quantity int, cost int64) (int, error)

	// CloseExpired completes active plans whose window has passed.
	CloseExpired(ctx context.Context, asOf time.Time) (int, error)
}

type ReportingService interface {
	Dashboard(ctx context.Context, periodDays int) (*DashboardReport, error)
	Insights(ctx context.Context, periodDays int) (*InsightsReport, error)
}

// Commands

type CreateSlotCommand struct {
	MealID            int
	Date              time.Time
	MealTime          string
	QuantityAvailable int
}

type CreatePlanCommand struct {
	Name        string
	PlanType    string
	StartDate   time.Time
	EndDate     time.Time
	TotalBudget int64
	CreatedBy   int
	Items       []CreatePlanItemCommand
}

type CreatePlanItemCommand struct {
	MealID            int
	EstimatedQuantity int
	UnitCost          int64
	Notes             *string
}

// Read models

// SlotView is a slot annotated with its computed remaining capacity.
type SlotView struct {
	Slot      *domain.ScheduleSlot
	Remaining int
}

type VarianceReport struct {
	PlanID             int
	PlanName           string
	EstimatedCost      int64
	ActualCost         int64
	Variance           int64
	VariancePercentage float64
}

type DayBucket struct {
	Date    string
	Revenue int64
	Orders  int
}

type MealPopularity struct {
	Name          string
	OrderCount    int
	TotalQuantity int
	Revenue       int64
}

type MealTimeBucket struct {
	MealTime domain.MealTime
	Count    int
	Revenue  int64
}

type DashboardReport struct {
	TotalRevenue     int64
	TotalOrders      int
	ActiveStudents   int
	RevenueByDay     []DayBucket
	PopularMeals     []MealPopularity
	OrdersByMealTime []MealTimeBucket
	PeriodDays       int
}

// MonthBucket aggregates orders by calendar month (YYYY-MM).
type MonthBucket struct {
	Month          string
	Orders         int
	Revenue        int64
	ActiveStudents int
}

type OverallStats struct {
	TotalOrders    int
	UniqueStudents int
	TotalRevenue   int64
	AvgOrderValue  int64
}

type EngagementBand struct {
	Level        string
	StudentCount int
	AvgSpent     int64
}

type CategoryRevenue struct {
	CategoryName string
	Revenue      int64
	Percentage   float64
}

type InsightsReport struct {
	OverallStats      OverallStats
	MonthlyTrends     []MonthBucket
	StudentEngagement []EngagementBand
	RevenueByCategory []CategoryRevenue
	BudgetAnalysis    []VarianceReport
	PeriodDays        int
}
