package application

import (
	"context"

	"github.com/fulfillment/order-system/order-service/domain"
)

// ListOrdersResponse represents the response for listing orders
type ListOrdersResponse struct {
	Orders []*OrderResponse `json:"orders"`
}

// ListOrders use case
type ListOrders struct {
	orderRepository domain.OrderRepository
}

// NewListOrders creates a new ListOrders use case
func NewListOrders(orderRepository domain.OrderRepository) *ListOrders {
	return &ListOrders{
		orderRepository: orderRepository,
	}
}

// Execute returns a snapshot of all orders in insertion order
func (uc *ListOrders) Execute(ctx context.Context) (*ListOrdersResponse, error) {
	orders, err := uc.orderRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	response := &ListOrdersResponse{
		Orders: make([]*OrderResponse, 0, len(orders)),
	}
	for _, order := range orders {
		response.Orders = append(response.Orders, newOrderResponse(order))
	}

	return response, nil
}
