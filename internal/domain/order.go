package domain

import "time"

// FulfilledOrder is the read model the reporting engine aggregates over.
// One row per fulfillment event, denormalized with catalog fields so rollups
// need no further lookups. Amount is quantity times unit cost, in the
// smallest currency unit.
type FulfilledOrder struct {
	ID        int
	EventID   string
	MealID    int
	MealName  string
	Category  string
	MealTime  MealTime
	StudentID int
	Quantity  int
	Amount    int64
	Date      time.Time
}
