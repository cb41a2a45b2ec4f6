package application

import (
	"context"
	"time"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// GetOrderQuery represents the query to get an order
type GetOrderQuery struct {
	OrderID string `json:"order_id"`
}

// OrderResponse represents an order returned to callers
type OrderResponse struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func newOrderResponse(order *domain.Order) *OrderResponse {
	return &OrderResponse{
		OrderID:    order.ID.String(),
		CustomerID: order.CustomerID,
		Amount:     order.Amount.Amount,
		Currency:   order.Amount.Currency,
		Status:     string(order.Status),
		CreatedAt:  order.Timestamps.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  order.Timestamps.UpdatedAt.Format(time.RFC3339),
	}
}

// GetOrder use case
type GetOrder struct {
	orderRepository domain.OrderRepository
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{
		orderRepository: orderRepository,
	}
}

// Execute executes the get order use case
func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*OrderResponse, error) {
	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	orderID, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orderRepository.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return newOrderResponse(order), nil
}
