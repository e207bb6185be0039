package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campusmess/emess/internal/adapter/logger"
	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type BudgetHandler struct {
	service interfaces.BudgetService
	logger  logger.Logger
}

func NewBudgetHandler(service interfaces.BudgetService, logger logger.Logger) *BudgetHandler {
	return &BudgetHandler{
		service: service,
		logger:  logger,
	}
}

type CreatePlanRequest struct {
	PlanName    string                  `json:"plan_name"`
	PlanType    string                  `json:"plan_type"`
	StartDate   string                  `json:"start_date"`
	EndDate     string                  `json:"end_date"`
	TotalBudget int64                   `json:"total_budget"`
	CreatedBy   int                     `json:"created_by"`
	Items       []CreatePlanItemRequest `json:"items"`
}

type CreatePlanItemRequest struct {
	MealID            int     `json:"meal_id"`
	EstimatedQuantity int     `json:"estimated_quantity"`
	UnitCost          int64   `json:"unit_cost"`
	Notes             *string `json:"notes,omitempty"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type RecordActualRequest struct {
	MealID   int   `json:"meal_id"`
	Quantity int   `json:"quantity"`
	Cost     int64 `json:"cost"`
}

type PlanItemResponse struct {
	ID                int     `json:"id"`
	MealID            int     `json:"meal_id"`
	MealName          string  `json:"meal_name,omitempty"`
	EstimatedQuantity int     `json:"estimated_quantity"`
	UnitCost          int64   `json:"unit_cost"`
	TotalCost         int64   `json:"total_cost"`
	ActualQuantity    int     `json:"actual_quantity"`
	ActualCost        int64   `json:"actual_cost"`
	Notes             *string `json:"notes,omitempty"`
}

type PlanResponse struct {
	ID            int                `json:"id"`
	PlanName      string             `json:"plan_name"`
	PlanType      string             `json:"plan_type"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	TotalBudget   int64              `json:"total_budget"`
	EstimatedCost int64              `json:"estimated_cost"`
	ActualCost    int64              `json:"actual_cost"`
	Status        string             `json:"status"`
	CreatedBy     int                `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []PlanItemResponse `json:"items"`
}

type VarianceResponse struct {
	PlanID             int     `json:"plan_id"`
	PlanName           string  `json:"plan_name"`
	EstimatedCost      int64   `json:"estimated_cost"`
	ActualCost         int64   `json:"actual_cost"`
	Variance           int64   `json:"variance"`
	VariancePercentage float64 `json:"variance_percentage"`
}

// HandlePlans serves /plans: POST creates a plan, GET lists plans with
// optional status and plan_type filters.
func (h *BudgetHandler) HandlePlans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createPlan(w, r)
	case http.MethodGet:
		h.listPlans(w, r)
	default:
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandlePlanByID serves /plans/{id}, /plans/{id}/status, /plans/{id}/actuals
// and /plans/{id}/variance.
func (h *BudgetHandler) HandlePlanByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		respondError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	planID, err := strconv.Atoi(parts[1])
	if err != nil {
		respondError(w, "Invalid plan id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getPlan(w, r, planID)
	case len(parts) == 3 && parts[2] == "status" && r.Method == http.MethodPost:
		h.transition(w, r, planID)
	case len(parts) == 3 && parts[2] == "actuals" && r.Method == http.MethodPost:
		h.recordActual(w, r, planID)
	case len(parts) == 3 && parts[2] == "variance" && r.Method == http.MethodGet:
		h.getVariance(w, r, planID)
	default:
		respondError(w, "Not found", http.StatusNotFound)
	}
}

func (h *BudgetHandler) createPlan(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, domain.CapManageBudget) {
		return
	}

	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondError(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	items := make([]interfaces.CreatePlanItemCommand, len(req.Items))
	for i, item := range req.Items {
		items[i] = interfaces.CreatePlanItemCommand{
			MealID:            item.MealID,
			EstimatedQuantity: item.EstimatedQuantity,
			UnitCost:          item.UnitCost,
			Notes:             item.Notes,
		}
	}

	plan, err := h.service.CreatePlan(r.Context(), interfaces.CreatePlanCommand{
		Name:        req.PlanName,
		PlanType:    req.PlanType,
		StartDate:   start,
		EndDate:     end,
		TotalBudget: req.TotalBudget,
		CreatedBy:   req.CreatedBy,
		Items:       items,
	})
	if err != nil {
		h.logger.Error("plan_creation_failed", "Failed to create plan", "", nil, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, planResponse(plan))
}

func (h *BudgetHandler) listPlans(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, domain.CapViewDashboard) {
		return
	}

	var status *domain.PlanStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.PlanStatus(v)
		if !s.Valid() {
			respondError(w, "status must be one of: draft, active, completed, cancelled", http.StatusBadRequest)
			return
		}
		status = &s
	}

	var planType *domain.PlanType
	if v := r.URL.Query().Get("plan_type"); v != "" {
		pt := domain.PlanType(v)
		if !pt.Valid() {
			respondError(w, "plan_type must be one of: weekly, monthly", http.StatusBadRequest)
			return
		}
		planType = &pt
	}

	plans, err := h.service.ListPlans(r.Context(), status, planType)
	if err != nil {
		h.logger.Error("plan_list_failed", "Failed to list plans", "", nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]PlanResponse, 0, len(plans))
	for _, plan := range plans {
		resp = append(resp, planResponse(plan))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *BudgetHandler) getPlan(w http.ResponseWriter, r *http.Request, planID int) {
	if !authorize(w, r, domain.CapViewDashboard) {
		return
	}

	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, planResponse(plan))
}

func (h *BudgetHandler) transition(w http.ResponseWriter, r *http.Request, planID int) {
	if !authorize(w, r, domain.CapManageBudget) {
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := h.service.Transition(r.Context(), planID, domain.PlanStatus(req.Status))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, planResponse(plan))
}

func (h *BudgetHandler) recordActual(w http.ResponseWriter, r *http.Request, planID int) {
	if !authorize(w, r, domain.CapManageBudget) {
		return
	}

	var req RecordActualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.RecordActual(r.Context(), planID, req.MealID, req.Quantity, req.Cost); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BudgetHandler) getVariance(w http.ResponseWriter, r *http.Request, planID int) {
	if !authorize(w, r, domain.CapViewDashboard) {
		return
	}

	report, err := h.service.GetVariance(r.Context(), planID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, VarianceResponse{
		PlanID:             report.PlanID,
		PlanName:           report.PlanName,
		EstimatedCost:      report.EstimatedCost,
		ActualCost:         report.ActualCost,
		Variance:           report.Variance,
		VariancePercentage: report.VariancePercentage,
	})
}

func planResponse(plan *domain.BudgetPlan) PlanResponse {
	items := make([]PlanItemResponse, len(plan.Items))
	for i, item := range plan.Items {
		items[i] = PlanItemResponse{
			ID:                item.ID,
			MealID:            item.MealID,
			MealName:          item.MealName,
			EstimatedQuantity: item.EstimatedQuantity,
			UnitCost:          item.UnitCost,
			TotalCost:         item.EstimatedCost(),
			ActualQuantity:    item.ActualQuantity,
			ActualCost:        item.ActualCost,
			Notes:             item.Notes,
		}
	}

	return PlanResponse{
		ID:            plan.ID,
		PlanName:      plan.Name,
		PlanType:      string(plan.Type),
		StartDate:     plan.StartDate.Format("2006-01-02"),
		EndDate:       plan.EndDate.Format("2006-01-02"),
		TotalBudget:   plan.TotalBudget,
		EstimatedCost: plan.EstimatedCost(),
		ActualCost:    plan.ActualCost(),
		Status:        string(plan.Status),
		CreatedBy:     plan.CreatedBy,
		CreatedAt:     plan.CreatedAt,
		Items:         items,
	}
}
