package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type SchedulingHandler struct {
	service interfaces.SchedulingService
	logger  logger.Logger
}

func NewSchedulingHandler(service interfaces.SchedulingService, logger logger.Logger) *SchedulingHandler {
	return &SchedulingHandler{
		service: service,
		logger:  logger,
	}
}

type CreateSlotRequest struct {
	MealID            int    `json:"meal_id"`
	ScheduleDate      string `json:"schedule_date"`
	MealTime          string `json:"meal_time"`
	QuantityAvailable int    `json:"quantity_available"`
}

type SlotResponse struct {
	ID                int    `json:"id"`
	MealID            int    `json:"meal_id"`
	ScheduleDate      string `json:"schedule_date"`
	MealTime          string `json:"meal_time"`
	QuantityAvailable int    `json:"quantity_available"`
	QuantityConsumed  int    `json:"quantity_consumed"`
	RemainingQuantity int    `json:"remaining_quantity"`
	Name              string `json:"name,omitempty"`
	Price             int64  `json:"price,omitempty"`
	CategoryName      string `json:"category_name,omitempty"`
}

type AdjustQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type AdjustQuantityResponse struct {
	SlotID    int `json:"slot_id"`
	Remaining int `json:"remaining"`
}

// HandleSlots serves /slots: POST creates a slot, GET queries by date and
// optional meal time.
func (h *SchedulingHandler) HandleSlots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createSlot(w, r)
	case http.MethodGet:
		h.querySlots(w, r)
	default:
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSlotByID serves /slots/{id} and /slots/{id}/{reserve|release}.
func (h *SchedulingHandler) HandleSlotByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		respondError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	slotID, err := strconv.Atoi(parts[1])
	if err != nil {
		respondError(w, "Invalid slot id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getSlot(w, r, slotID)
	case len(parts) == 2 && r.Method == http.MethodDelete:
		h.deleteSlot(w, r, slotID)
	case len(parts) == 3 && parts[2] == "reserve" && r.Method == http.MethodPost:
		h.adjust(w, r, slotID, h.service.Reserve)
	case len(parts) == 3 && parts[2] == "release" && r.Method == http.MethodPost:
		h.adjust(w, r, slotID, h.service.Release)
	default:
		respondError(w, "Not found", http.StatusNotFound)
	}
}

func (h *SchedulingHandler) createSlot(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, domain.CapManageSchedule) {
		return
	}

	var req CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", req.ScheduleDate)
	if err != nil {
		respondError(w, "schedule_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), interfaces.CreateSlotCommand{
		MealID:            req.MealID,
		Date:              date,
		MealTime:          req.MealTime,
		QuantityAvailable: req.QuantityAvailable,
	})
	if err != nil {
		h.logger.Error("slot_creation_failed", "Failed to create slot", "", nil, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, slotResponse(slot, slot.Remaining()))
}

func (h *SchedulingHandler) querySlots(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, domain.CapViewDashboard) {
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var mealTime *domain.MealTime
	if v := r.URL.Query().Get("meal_time"); v != "" {
		mt := domain.MealTime(v)
		if !mt.Valid() {
			respondDomainError(w, domain.ErrInvalidMealTime)
			return
		}
		mealTime = &mt
	}

	resp := []SlotResponse{}
	for view, err := range h.service.Query(r.Context(), date, mealTime) {
		if err != nil {
			h.logger.Error("slot_query_failed", "Failed to query slots", "", nil, err)
			respondError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		resp = append(resp, slotResponse(view.Slot, view.Remaining))
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *SchedulingHandler) getSlot(w http.ResponseWriter, r *http.Request, slotID int) {
	if !authorize(w, r, domain.CapViewDashboard) {
		return
	}

	view, err := h.service.GetSlot(r.Context(), slotID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, slotResponse(view.Slot, view.Remaining))
}

func (h *SchedulingHandler) deleteSlot(w http.ResponseWriter, r *http.Request, slotID int) {
	if !authorize(w, r, domain.CapManageSchedule) {
		return
	}

	if err := h.service.DeleteSlot(r.Context(), slotID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchedulingHandler) adjust(w http.ResponseWriter, r *http.Request, slotID int, op func(ctx context.Context, slotID, quantity int) (int, error)) {
	if !authorize(w, r, domain.CapManageSchedule) {
		return
	}

	var req AdjustQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	remaining, err := op(r.Context(), slotID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AdjustQuantityResponse{SlotID: slotID, Remaining: remaining})
}

func slotResponse(slot *domain.ScheduleSlot, remaining int) SlotResponse {
	return SlotResponse{
		ID:                slot.ID,
		MealID:            slot.MealID,
		ScheduleDate:      slot.Date.Format("2006-01-02"),
		MealTime:          string(slot.MealTime),
		QuantityAvailable: slot.QuantityAvailable,
		QuantityConsumed:  slot.QuantityConsumed,
		RemainingQuantity: remaining,
		Name:              slot.MealName,
		Price:             slot.Price,
		CategoryName:      slot.CategoryName,
	}
}
