package advance

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

type AdvanceDTO struct {
	ID              uuid.UUID  `json:"id"`
	Reference       string     `json:"reference"`
	CSSID           uuid.UUID  `json:"cssId"`
	CSSCode         string     `json:"cssCode"`
	CSSName         string     `json:"cssName"`
	RequestID       *uuid.UUID `json:"requestId,omitempty"`
	Principal       string     `json:"principal"`
	AnnualRatePct   string     `json:"annualRatePct"`
	StartDate       string     `json:"startDate"`
	EndDatePlanned  *string    `json:"endDatePlanned,omitempty"`
	EndDateActual   *string    `json:"endDateActual,omitempty"`
	Status          string     `json:"status"`
	AccruedInterest string     `json:"accruedInterest"`
	LastAccrualDate *string    `json:"lastAccrualDate,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

type CloseDTO struct {
	Date string `json:"date"`
}

type AccrualRunDTO struct {
	AsOf    string `json:"asOf"`
	Accrued int    `json:"accrued"`
}

type Handler struct {
	service Service
	clock   utils.Clock
}

func NewHandler(service Service, clock utils.Clock) *Handler {
	return &Handler{service: service, clock: clock}
}

func (handler *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	activeOnly := r.URL.Query().Has("activeOnly")

	advances, err := handler.service.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]AdvanceDTO, 0, len(advances))
	for _, a := range advances {
		dtos = append(dtos, toDTO(a))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid advance id", http.StatusBadRequest)
		return
	}

	a, err := handler.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toDTO(a)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Close(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid advance id", http.StatusBadRequest)
		return
	}
	var dto CloseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := handler.clock.Now()
	if dto.Date != "" {
		date, err = time.Parse(dateLayout, dto.Date)
		if err != nil {
			http.Error(w, "Invalid close date", http.StatusBadRequest)
			return
		}
	}

	a, err := handler.service.Close(r.Context(), id, date)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toDTO(a)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// RunAccrual triggers the daily interest recording outside the cron
// schedule, typically after a backfill or in tests against a live system.
func (handler *Handler) RunAccrual(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := user.RequireAdmin(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	asOf := handler.clock.Now()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		var err error
		asOf, err = time.Parse(dateLayout, raw)
		if err != nil {
			http.Error(w, "Invalid asOf date", http.StatusBadRequest)
			return
		}
	}

	accrued, err := handler.service.AccrueInterest(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	dto := AccrualRunDTO{AsOf: asOf.Format(dateLayout), Accrued: accrued}
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func toDTO(a Advance) AdvanceDTO {
	dto := AdvanceDTO{
		ID:              a.ID,
		Reference:       a.Reference,
		CSSID:           a.CSSID,
		CSSCode:         a.CSSCode,
		CSSName:         a.CSSName,
		RequestID:       a.RequestID,
		Principal:       a.Principal.StringFixed(2),
		AnnualRatePct:   a.AnnualRatePct.StringFixed(3),
		StartDate:       a.StartDate.Format(dateLayout),
		Status:          string(a.Status),
		AccruedInterest: a.AccruedInterest.StringFixed(2),
		Notes:           a.Notes,
	}
	if a.EndDatePlanned != nil {
		planned := a.EndDatePlanned.Format(dateLayout)
		dto.EndDatePlanned = &planned
	}
	if a.EndDateActual != nil {
		actual := a.EndDateActual.Format(dateLayout)
		dto.EndDateActual = &actual
	}
	if a.LastAccrualDate != nil {
		last := a.LastAccrualDate.Format(dateLayout)
		dto.LastAccrualDate = &last
	}
	return dto
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, user.ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrAdvanceNotFound):
		http.Error(w, "Advance not found", http.StatusNotFound)
	case errors.Is(err, ErrAdvanceClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
