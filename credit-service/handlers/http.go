package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fulfillment/order-system/credit-service/application"
	"github.com/fulfillment/order-system/credit-service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// CreditHandlers contains credit HTTP handlers
type CreditHandlers struct {
	reserveCredit *application.ReserveCredit
}

// NewCreditHandlers creates new credit handlers
func NewCreditHandlers(reserveCredit *application.ReserveCredit) *CreditHandlers {
	return &CreditHandlers{
		reserveCredit: reserveCredit,
	}
}

// ReserveCredit handles credit reservation requests. Business rejection is
// reported as 500 and temporary unavailability as 503; the order service
// classifies those as permanent and transient failures respectively.
func (h *CreditHandlers) ReserveCredit(w http.ResponseWriter, r *http.Request) {
	var cmd application.ReserveCreditCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.IdempotencyKey = r.Header.Get("Idempotency-Key")

	response, err := h.reserveCredit.Execute(r.Context(), &cmd)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrServiceUnavailable):
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		case errors.Is(err, domain.ErrInsufficientCredit):
			http.Error(w, "Not enough credit", http.StatusInternalServerError)
		case errors.Is(err, domain.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers credit routes
func (h *CreditHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/credits", func(r chi.Router) {
		r.Post("/reserve", h.ReserveCredit)
	})
}
