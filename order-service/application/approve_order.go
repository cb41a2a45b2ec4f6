package application

import (
	"context"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// ApproveOrderCommand represents the command to approve an order directly
type ApproveOrderCommand struct {
	OrderID string `json:"order_id"`
}

// ApproveOrder use case for direct order-management calls. The domain type
// validates the transition; the store itself applies status unconditionally.
// Any in-flight saga is cancelled first so it cannot race the operator and
// rewrite the terminal status.
type ApproveOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	sagas           SagaCanceller
}

// NewApproveOrder creates a new ApproveOrder use case
func NewApproveOrder(orderRepository domain.OrderRepository, eventPublisher events.Publisher, sagas SagaCanceller) *ApproveOrder {
	return &ApproveOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		sagas:           sagas,
	}
}

// Execute executes the approve order use case
func (uc *ApproveOrder) Execute(ctx context.Context, cmd *ApproveOrderCommand) (*OrderResponse, error) {
	if cmd.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	uc.sagas.Cancel(orderID)

	order, err := uc.orderRepository.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Approve(); err != nil {
		return nil, err
	}

	updated, err := uc.orderRepository.UpdateStatus(ctx, orderID, domain.OrderStatusApproved)
	if err != nil {
		return nil, err
	}

	if err := uc.eventPublisher.Publish(ctx, order.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	order.ClearEvents()

	return newOrderResponse(updated), nil
}
