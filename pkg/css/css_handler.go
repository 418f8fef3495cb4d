package css

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type CSSDTO struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	ContactEmail  string    `json:"contactEmail,omitempty"`
	ContactPhone  string    `json:"contactPhone,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	activeOnly := r.URL.Query().Has("activeOnly")

	list, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]CSSDTO, 0, len(list))
	for _, c := range list {
		dtos = append(dtos, toDTO(c))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, err := uuid.Parse(mux.Vars(r)["cssId"])
	if err != nil {
		http.Error(w, "invalid css id", http.StatusBadRequest)
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(toDTO(c)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new CSS")
	w.Header().Set("Content-Type", "application/json")

	var dto CSSDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), CSS{
		Code:          dto.Code,
		Name:          dto.Name,
		Address:       dto.Address,
		ContactPerson: dto.ContactPerson,
		ContactEmail:  dto.ContactEmail,
		ContactPhone:  dto.ContactPhone,
		Active:        true,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toDTO(c CSS) CSSDTO {
	return CSSDTO{
		ID:            c.ID.String(),
		Code:          c.Code,
		Name:          c.Name,
		Address:       c.Address,
		ContactPerson: c.ContactPerson,
		ContactEmail:  c.ContactEmail,
		ContactPhone:  c.ContactPhone,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, user.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrCSSNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
