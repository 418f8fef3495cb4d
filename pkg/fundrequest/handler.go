package fundrequest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type LineItemDTO struct {
	ID            uuid.UUID `json:"id"`
	Amount        string    `json:"amount"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"paymentMethod"`
	Description   string    `json:"description,omitempty"`
}

type RequestDayDTO struct {
	ID    uuid.UUID     `json:"id"`
	Date  string        `json:"date"`
	Items []LineItemDTO `json:"items"`
}

type FundRequestDTO struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	CSSID         uuid.UUID       `json:"cssId"`
	CSSCode       string          `json:"cssCode"`
	CSSName       string          `json:"cssName"`
	Description   string          `json:"description,omitempty"`
	Days          []RequestDayDTO `json:"days"`
	Status        string          `json:"status"`
	Total         string          `json:"total"`
	DateRequested time.Time       `json:"dateRequested"`
	ReviewedBy    *uuid.UUID      `json:"reviewedBy,omitempty"`
	DateReviewed  *time.Time      `json:"dateReviewed,omitempty"`
	ReviewNotes   string          `json:"reviewNotes,omitempty"`
	DateVersed    *string         `json:"dateVersed,omitempty"`
}

type submitItemDTO struct {
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	PaymentMethod string `json:"paymentMethod"`
	Description   string `json:"description"`
}

type submitDayDTO struct {
	Date  string          `json:"date"`
	Items []submitItemDTO `json:"items"`
}

type SubmitRequestDTO struct {
	Description string         `json:"description"`
	Days        []submitDayDTO `json:"days"`
}

type ReviewDTO struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

type VersementDTO struct {
	Date string `json:"date"`
}

type StatsDTO struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	TotalAmount string         `json:"totalAmount"`
}

type Handler struct {
	service Service
	clock   utils.Clock
}

func NewHandler(service Service, clock utils.Clock) *Handler {
	return &Handler{service: service, clock: clock}
}

func (handler *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log.Debug("Submitting new fund request")
	w.Header().Set("Content-Type", "application/json")

	var dto SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	draft, err := handler.buildDraft(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	request, err := handler.service.Submit(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toDTO(request)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	requests, err := handler.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]FundRequestDTO, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, toDTO(request))
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
		http.Error(w, "Invalid request id", http.StatusBadRequest)
		return
	}

	request, err := handler.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toDTO(request)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Review(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request id", http.StatusBadRequest)
		return
	}
	var dto ReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	action := Action(dto.Action)
	if action != ActionApprove && action != ActionReject {
		http.Error(w, "Action must be approve or reject", http.StatusBadRequest)
		return
	}

	request, err := handler.service.Review(r.Context(), id, action, dto.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toDTO(request)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) MarkVersed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request id", http.StatusBadRequest)
		return
	}
	var dto VersementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := handler.clock.Now()
	if dto.Date != "" {
		date, err = time.Parse(dateLayout, dto.Date)
		if err != nil {
			http.Error(w, "Invalid versement date", http.StatusBadRequest)
			return
		}
	}

	request, err := handler.service.MarkVersed(r.Context(), id, date)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toDTO(request)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats, err := handler.service.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	dto := StatsDTO{
		Total:       stats.Total,
		ByStatus:    byStatus,
		TotalAmount: stats.TotalAmount.StringFixed(2),
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// buildDraft replays the submitted payload through a draft so that every
// date, capacity and enum rule is applied before the service sees it.
func (handler *Handler) buildDraft(dto SubmitRequestDTO) (*Draft, error) {
	draft := NewDraft(handler.clock)
	draft.SetDescription(dto.Description)
	for _, dayDTO := range dto.Days {
		date, err := time.Parse(dateLayout, dayDTO.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day, err := draft.AddDay(date)
		if err != nil {
			return nil, err
		}
		for _, itemDTO := range dayDTO.Items {
			amount, err := decimal.NewFromString(itemDTO.Amount)
			if err != nil {
				return nil, errors.New("invalid amount: " + itemDTO.Amount)
			}
			_, err = draft.AddItem(day.ID, amount, Category(itemDTO.Category),
				PaymentMethod(itemDTO.PaymentMethod), itemDTO.Description)
			if err != nil {
				return nil, err
			}
		}
	}
	return draft, nil
}

func toDTO(request FundRequest) FundRequestDTO {
	days := make([]RequestDayDTO, 0, len(request.Days))
	for _, day := range request.Days {
		items := make([]LineItemDTO, 0, len(day.Items))
		for _, item := range day.Items {
			items = append(items, LineItemDTO{
				ID:            item.ID,
				Amount:        item.Amount.StringFixed(2),
				Category:      string(item.Category),
				PaymentMethod: string(item.PaymentMethod),
				Description:   item.Description,
			})
		}
		days = append(days, RequestDayDTO{ID: day.ID, Date: day.Date.Format(dateLayout), Items: items})
	}

	dto := FundRequestDTO{
		ID:            request.ID,
		Reference:     request.Reference,
		CSSID:         request.CSSID,
		CSSCode:       request.CSSCode,
		CSSName:       request.CSSName,
		Description:   request.Description,
		Days:          days,
		Status:        string(request.Status),
		Total:         Total(request).StringFixed(2),
		DateRequested: request.DateRequested,
		ReviewedBy:    request.ReviewedBy,
		DateReviewed:  request.DateReviewed,
		ReviewNotes:   request.ReviewNotes,
	}
	if request.DateVersed != nil {
		versed := request.DateVersed.Format(dateLayout)
		dto.DateVersed = &versed
	}
	return dto
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, user.ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Fund request not found", http.StatusNotFound)
	case errors.Is(err, ErrIllegalTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrEmptyRequest),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidPaymentMethod),
		errors.Is(err, ErrDayNotFound),
		errors.Is(err, ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
	if !errors.Is(err, ErrNotFound) {
		log.Debugf("fund request error: %v", err)
	}
}
