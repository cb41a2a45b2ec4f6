package application

import (
	"context"
	"time"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// SagaCanceller stops in-flight sagas
type SagaCanceller interface {
	Cancel(orderID models.ID) bool
	CancelAll()
}

// DeleteOrderCommand represents the command to delete an order
type DeleteOrderCommand struct {
	OrderID string `json:"order_id"`
}

// DeleteOrder use case. Any in-flight saga is cancelled before the record
// is removed so the orchestrator issues no further reservation attempts and
// records no status update for a vanished order.
type DeleteOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	sagas           SagaCanceller
}

// NewDeleteOrder creates a new DeleteOrder use case
func NewDeleteOrder(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
	sagas SagaCanceller,
) *DeleteOrder {
	return &DeleteOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		sagas:           sagas,
	}
}

// Execute executes the delete order use case
func (uc *DeleteOrder) Execute(ctx context.Context, cmd *DeleteOrderCommand) (*OrderResponse, error) {
	if cmd.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	uc.sagas.Cancel(orderID)

	order, err := uc.orderRepository.Delete(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Downstream consumers (the credit service) release any committed
	// reservation for this order on this event.
	event := events.NewEvent(order.ID, events.OrderDeletedEvent, domain.OrderDeletedData{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     string(order.Status),
		DeletedAt:  time.Now(),
	}).WithCorrelationID(order.ID)

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}

	return newOrderResponse(order), nil
}
