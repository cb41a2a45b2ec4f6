package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fulfillment/order-system/order-service/application"
	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder     *application.CreateOrder
	getOrder        *application.GetOrder
	listOrders      *application.ListOrders
	approveOrder    *application.ApproveOrder
	rejectOrder     *application.RejectOrder
	deleteOrder     *application.DeleteOrder
	deleteAllOrders *application.DeleteAllOrders
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	getOrder *application.GetOrder,
	listOrders *application.ListOrders,
	approveOrder *application.ApproveOrder,
	rejectOrder *application.RejectOrder,
	deleteOrder *application.DeleteOrder,
	deleteAllOrders *application.DeleteAllOrders,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder:     createOrder,
		getOrder:        getOrder,
		listOrders:      listOrders,
		approveOrder:    approveOrder,
		rejectOrder:     rejectOrder,
		deleteOrder:     deleteOrder,
		deleteAllOrders: deleteAllOrders,
	}
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	query := &application.GetOrderQuery{
		OrderID: chi.URLParam(r, "id"),
	}

	response, err := h.getOrder.Execute(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListOrders handles order listing requests
func (h *OrderHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	response, err := h.listOrders.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ApproveOrder handles direct order approval requests
func (h *OrderHandlers) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	cmd := &application.ApproveOrderCommand{
		OrderID: chi.URLParam(r, "id"),
	}

	response, err := h.approveOrder.Execute(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RejectOrder handles direct order rejection requests
func (h *OrderHandlers) RejectOrder(w http.ResponseWriter, r *http.Request) {
	cmd := &application.RejectOrderCommand{
		OrderID: chi.URLParam(r, "id"),
	}

	response, err := h.rejectOrder.Execute(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// DeleteOrder handles order deletion requests
func (h *OrderHandlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	cmd := &application.DeleteOrderCommand{
		OrderID: chi.URLParam(r, "id"),
	}

	response, err := h.deleteOrder.Execute(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// DeleteAllOrders handles requests to clear the order store
func (h *OrderHandlers) DeleteAllOrders(w http.ResponseWriter, r *http.Request) {
	response, err := h.deleteAllOrders.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/approve/{id}", h.ApproveOrder)
		r.Put("/reject/{id}", h.RejectOrder)
		r.Delete("/{id}", h.DeleteOrder)
		r.Delete("/", h.DeleteAllOrders)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDuplicateOrderID):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
