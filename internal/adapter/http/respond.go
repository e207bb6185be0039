package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusmess/emess/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondDomainError maps ledger validation errors onto transport codes.
// Unrecognized errors are internal: the message is not echoed back.
func respondDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondError(w, "Internal server error", status)
		return
	}
	respondError(w, err.Error(), status)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrSlotNotFound),
		errors.Is(err, domain.ErrPlanNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrMealNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrDuplicateSlot),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrSlotInUse),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrPlanClosed),
		errors.Is(err, domain.ErrPlanNotActive):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrInvalidMealTime),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidBudget),
		errors.Is(err, domain.ErrInvalidItem):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// authorize resolves the caller's role from the X-User-Role header (token
// verification is upstream) and checks the capability. Writes the refusal
// itself; callers just return on false.
func authorize(w http.ResponseWriter, r *http.Request, capability domain.Capability) bool {
	role := domain.Role(r.Header.Get("X-User-Role"))
	if role == "" {
		respondError(w, "Missing role", http.StatusUnauthorized)
		return false
	}
	if !role.Valid() || !role.Can(capability) {
		respondError(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}
