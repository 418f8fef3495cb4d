package transaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cgtsim/cgtsim/pkg/css"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type TransactionDTO struct {
	ID          uuid.UUID  `json:"id"`
	CSSID       uuid.UUID  `json:"cssId"`
	CSSCode     string     `json:"cssCode"`
	CSSName     string     `json:"cssName"`
	Type        string     `json:"type"`
	Amount      string     `json:"amount"`
	Date        string     `json:"date"`
	Reference   string     `json:"reference"`
	Description string     `json:"description,omitempty"`
	RequestID   *uuid.UUID `json:"requestId,omitempty"`
	AdvanceID   *uuid.UUID `json:"advanceId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type CreateSubsidyDTO struct {
	CSSID       uuid.UUID `json:"cssId"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
}

type BalanceDTO struct {
	CSSID   uuid.UUID         `json:"cssId"`
	CSSCode string            `json:"cssCode"`
	CSSName string            `json:"cssName"`
	ByType  map[string]string `json:"byType"`
	Balance string            `json:"balance"`
}

type StatsDTO struct {
	Count   int               `json:"count"`
	ByType  map[string]int    `json:"byType"`
	Amounts map[string]string `json:"amounts"`
}

type Handler struct {
	service     Service
	csvRenderer LedgerRenderer
}

func NewHandler(service Service, csvRenderer LedgerRenderer) *Handler {
	return &Handler{service: service, csvRenderer: csvRenderer}
}

func (handler *Handler) CreateSubsidy(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto CreateSubsidyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		http.Error(w, "Invalid amount: "+dto.Amount, http.StatusBadRequest)
		return
	}
	var date time.Time
	if dto.Date != "" {
		date, err = time.Parse(dateLayout, dto.Date)
		if err != nil {
			http.Error(w, "Invalid date: "+dto.Date, http.StatusBadRequest)
			return
		}
	}

	tx, err := handler.service.CreateSubsidy(r.Context(), NewSubsidy{
		CSSID:       dto.CSSID,
		Amount:      amount,
		Date:        date,
		Description: dto.Description,
		Reference:   dto.Reference,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toDTO(tx)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	transactions, err := handler.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		csv, err := handler.csvRenderer.RenderLedger(transactions)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := w.Write([]byte(csv)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, tx := range transactions {
		dtos = append(dtos, toDTO(tx))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Balances(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	balances, err := handler.service.Balances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]BalanceDTO, 0, len(balances))
	for _, balance := range balances {
		byType := make(map[string]string, len(balance.ByType))
		for txType, amount := range balance.ByType {
			byType[string(txType)] = amount.StringFixed(2)
		}
		dtos = append(dtos, BalanceDTO{
			CSSID:   balance.CSSID,
			CSSCode: balance.CSSCode,
			CSSName: balance.CSSName,
			ByType:  byType,
			Balance: balance.Balance.StringFixed(2),
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
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

	byType := make(map[string]int, len(stats.ByType))
	amounts := make(map[string]string, len(stats.Amounts))
	for txType, count := range stats.ByType {
		byType[string(txType)] = count
	}
	for txType, amount := range stats.Amounts {
		amounts[string(txType)] = amount.StringFixed(2)
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(StatsDTO{Count: stats.Count, ByType: byType, Amounts: amounts}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func parseFilter(r *http.Request) (Filter, error) {
	var filter Filter
	query := r.URL.Query()
	if raw := query.Get("cssId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filter{}, errors.New("invalid cssId filter")
		}
		filter.CSSID = &id
	}
	if raw := query.Get("type"); raw != "" {
		txType := Type(raw)
		if !txType.IsValid() {
			return Filter{}, errors.New("invalid type filter")
		}
		filter.Type = &txType
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Filter{}, errors.New("invalid from filter")
		}
		filter.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Filter{}, errors.New("invalid to filter")
		}
		filter.To = &to
	}
	return filter, nil
}

func toDTO(tx Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		CSSID:       tx.CSSID,
		CSSCode:     tx.CSSCode,
		CSSName:     tx.CSSName,
		Type:        string(tx.Type),
		Amount:      tx.Amount.StringFixed(2),
		Date:        tx.Date.Format(dateLayout),
		Reference:   tx.Reference,
		Description: tx.Description,
		RequestID:   tx.RequestID,
		AdvanceID:   tx.AdvanceID,
		CreatedAt:   tx.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, user.ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, css.ErrCSSNotFound):
		http.Error(w, "CSS not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
