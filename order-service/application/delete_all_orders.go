package application

import (
	"context"
	"time"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/pkg/errors"
)

// DeleteAllOrdersResponse reports how many orders were removed
type DeleteAllOrdersResponse struct {
	Deleted int `json:"deleted"`
}

// DeleteAllOrders use case: cancels every in-flight saga and clears the
// store
type DeleteAllOrders struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	sagas           SagaCanceller
}

// NewDeleteAllOrders creates a new DeleteAllOrders use case
func NewDeleteAllOrders(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
	sagas SagaCanceller,
) *DeleteAllOrders {
	return &DeleteAllOrders{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		sagas:           sagas,
	}
}

// Execute executes the delete all orders use case
func (uc *DeleteAllOrders) Execute(ctx context.Context) (*DeleteAllOrdersResponse, error) {
	uc.sagas.CancelAll()

	orders, err := uc.orderRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := uc.orderRepository.DeleteAll(ctx); err != nil {
		return nil, err
	}

	deletedAt := time.Now()
	evts := make([]*events.Event, 0, len(orders))
	for _, order := range orders {
		evts = append(evts, events.NewEvent(order.ID, events.OrderDeletedEvent, domain.OrderDeletedData{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Status:     string(order.Status),
			DeletedAt:  deletedAt,
		}).WithCorrelationID(order.ID))
	}

	if len(evts) > 0 {
		if err := uc.eventPublisher.Publish(ctx, evts...); err != nil {
			return nil, errors.Wrap(err, "failed to publish events")
		}
	}

	return &DeleteAllOrdersResponse{Deleted: len(orders)}, nil
}
