package domain

// MealTime is the fixed four-valued slot category for a school day.
type MealTime string

const (
	MealTimeBreakfast MealTime = "breakfast"
	MealTimeLunch     MealTime = "lunch"
	MealTimeDinner    MealTime = "dinner"
	MealTimeSnack     MealTime = "snack"
)

// MealTimes lists every meal time in canonical order. Reports iterate this
// so that categories with zero activity are still emitted.
var MealTimes = []MealTime{MealTimeBreakfast, MealTimeLunch, MealTimeDinner, MealTimeSnack}

// Valid reports whether mt is one of the four known meal times.
func (mt MealTime) Valid() bool {
	switch mt {
	case MealTimeBreakfast, MealTimeLunch, MealTimeDinner, MealTimeSnack:
		return true
	}
	return false
}

// MealCategory groups catalog entries for category-level revenue reporting.
type MealCategory struct {
	ID          int
	Name        string
	Description *string
}

// Meal is a catalog entry. The catalog is owned by an external management
// surface; the ledgers reference meals and never mutate them.
// Price is in the smallest currency unit.
type Meal struct {
	ID           int
	CategoryID   int
	Name         string
	Description  *string
	Price        int64
	IsActive     bool
	CategoryName string
}
