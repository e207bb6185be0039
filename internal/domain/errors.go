package domain

import "errors"

// Ledger validation errors. These are domain failures scoped to a single
// operation, never fatal; the adapter layer maps them to transport codes.
var (
	// Scheduling ledger
	ErrDuplicateSlot    = errors.New("slot already exists for this meal, date and meal time")
	ErrInvalidCapacity  = errors.New("slot capacity must not be negative")
	ErrInvalidMealTime  = errors.New("meal time must be one of: breakfast, lunch, dinner, snack")
	ErrSlotNotFound     = errors.New("schedule slot not found")
	ErrCapacityExceeded = errors.New("reservation exceeds remaining slot capacity")
	ErrSlotInUse        = errors.New("slot has recorded consumption and cannot be deleted")
	ErrInvalidQuantity  = errors.New("quantity must be positive")

	// Budget ledger
	ErrInvalidWindow     = errors.New("plan end date must not precede start date")
	ErrInvalidBudget     = errors.New("total budget must be positive")
	ErrInvalidItem       = errors.New("plan item quantity and unit cost must not be negative")
	ErrInvalidTransition = errors.New("status transition is not allowed")
	ErrPlanClosed        = errors.New("plan is in a terminal status")
	ErrPlanNotActive     = errors.New("plan is not active")
	ErrPlanNotFound      = errors.New("budget plan not found")
	ErrItemNotFound      = errors.New("no planned item matches this meal")

	// Catalog
	ErrMealNotFound = errors.New("meal not found or inactive")
)
