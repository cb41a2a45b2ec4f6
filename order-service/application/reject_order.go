package application

import (
	"context"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// RejectOrderCommand represents the command to reject an order directly
type RejectOrderCommand struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

// RejectOrder use case for direct order-management calls. Any in-flight
// saga is cancelled first, like ApproveOrder.
type RejectOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	sagas           SagaCanceller
}

// NewRejectOrder creates a new RejectOrder use case
func NewRejectOrder(orderRepository domain.OrderRepository, eventPublisher events.Publisher, sagas SagaCanceller) *RejectOrder {
	return &RejectOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		sagas:           sagas,
	}
}

// Execute executes the reject order use case
func (uc *RejectOrder) Execute(ctx context.Context, cmd *RejectOrderCommand) (*OrderResponse, error) {
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

	reason := cmd.Reason
	if reason == "" {
		reason = "rejected by operator"
	}

	if err := order.Reject(reason); err != nil {
		return nil, err
	}

	updated, err := uc.orderRepository.UpdateStatus(ctx, orderID, domain.OrderStatusRejected)
	if err != nil {
		return nil, err
	}

	if err := uc.eventPublisher.Publish(ctx, order.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	order.ClearEvents()

	return newOrderResponse(updated), nil
}
