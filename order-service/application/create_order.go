package application

import (
	"context"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/order-service/saga"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// SagaStarter launches the fulfillment saga for a created order
type SagaStarter interface {
	Start(ctx context.Context, order *domain.Order) *saga.Execution
}

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	CustomerID string `json:"customer_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// CreateOrder use case: persists the order and launches its fulfillment
// saga. The caller gets the order id back immediately and observes the
// outcome of credit reservation through the order status, never by waiting
// on retries.
type CreateOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	sagas           SagaStarter
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
	sagas SagaStarter,
) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		sagas:           sagas,
	}
}

// Execute executes the create order use case
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	order, err := domain.CreateOrder(cmd.CustomerID, models.NewMoney(cmd.Amount, cmd.Currency))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	if err := uc.orderRepository.Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	if err := uc.eventPublisher.Publish(ctx, order.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	order.ClearEvents()

	// The saga outlives this request; detach it from the request deadline
	// while keeping request-scoped values such as telemetry.
	uc.sagas.Start(context.WithoutCancel(ctx), order)

	return &CreateOrderResponse{
		OrderID: order.ID.String(),
		Status:  string(order.Status),
	}, nil
}

// validateCommand validates the create order command
func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) error {
	if cmd.CustomerID == "" {
		return errors.New("customer ID is required")
	}

	if cmd.Amount <= 0 {
		return errors.New("amount must be positive")
	}

	if cmd.Currency == "" {
		return errors.New("currency is required")
	}

	return nil
}
