package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cgtsim/cgtsim/pkg/user"
)

type CSSStatsDTO struct {
	TotalRequests int            `json:"totalRequests"`
	ByStatus      map[string]int `json:"byStatus"`
	TotalAmount   string         `json:"totalAmount"`
	VersedAmount  string         `json:"versedAmount"`
}

type GlobalStatsDTO struct {
	TotalRequests    int            `json:"totalRequests"`
	ByStatus         map[string]int `json:"byStatus"`
	TotalAmount      string         `json:"totalAmount"`
	ActiveCSSCount   int            `json:"activeCssCount"`
	ActiveAdvances   int            `json:"activeAdvances"`
	AdvancePrincipal string         `json:"advancePrincipal"`
	AccruedInterest  string         `json:"accruedInterest"`
}

type TreasuryDayDTO struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type TreasuryDTO struct {
	Next7Days   []TreasuryDayDTO `json:"next7Days"`
	Total30Days string           `json:"total30Days"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) StatsCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats, err := handler.service.StatsCSS(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	dto := CSSStatsDTO{
		TotalRequests: stats.TotalRequests,
		ByStatus:      statusCounts(stats.ByStatus),
		TotalAmount:   stats.TotalAmount.StringFixed(2),
		VersedAmount:  stats.VersedAmount.StringFixed(2),
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) StatsCGTSIM(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats, err := handler.service.StatsCGTSIM(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	dto := GlobalStatsDTO{
		TotalRequests:    stats.Requests.Total,
		ByStatus:         statusCounts(stats.Requests.ByStatus),
		TotalAmount:      stats.Requests.TotalAmount.StringFixed(2),
		ActiveCSSCount:   stats.ActiveCSSCount,
		ActiveAdvances:   stats.ActiveAdvances,
		AdvancePrincipal: stats.AdvancePrincipal.StringFixed(2),
		AccruedInterest:  stats.AccruedInterest.StringFixed(2),
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Treasury(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	treasury, err := handler.service.Treasury(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	days := make([]TreasuryDayDTO, 0, len(treasury.Next7Days))
	for _, day := range treasury.Next7Days {
		days = append(days, TreasuryDayDTO{
			Date:   day.Date.Format("2006-01-02"),
			Amount: day.Amount.StringFixed(2),
		})
	}
	dto := TreasuryDTO{Next7Days: days, Total30Days: treasury.Total30Days.StringFixed(2)}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func statusCounts[K ~string](in map[K]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, user.ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
