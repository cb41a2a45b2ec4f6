package domain

import (
	"context"
	"time"

	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// Store errors surfaced to order-management callers
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrderID = errors.New("order id already exists")
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "created"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
)

// IsTerminal reports whether no further status transition is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

// Order aggregate root
type Order struct {
	ID         models.ID
	CustomerID string
	Amount     models.Money
	Status     OrderStatus
	Timestamps models.Timestamps
	Version    models.Version

	events []*events.Event
}

// CreateOrder factory method
func CreateOrder(customerID string, amount models.Money) (*Order, error) {
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}
	if !amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}

	order := &Order{
		ID:         models.GenerateUUID(),
		CustomerID: customerID,
		Amount:     amount,
		Status:     OrderStatusCreated,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}

	event := events.NewEvent(order.ID, events.OrderCreatedEvent, OrderCreatedData{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     order.Amount,
	})

	order.recordEvent(event)
	return order, nil
}

// Approve marks the order as approved
func (o *Order) Approve() error {
	if o.Status != OrderStatusCreated {
		return errors.Errorf("order can only be approved from created status, got %s", o.Status)
	}

	o.Status = OrderStatusApproved
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()

	event := events.NewEvent(o.ID, events.OrderApprovedEvent, OrderApprovedData{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		ApprovedAt: time.Now(),
	})

	o.recordEvent(event)
	return nil
}

// Reject marks the order as rejected
func (o *Order) Reject(reason string) error {
	if o.Status != OrderStatusCreated {
		return errors.Errorf("order can only be rejected from created status, got %s", o.Status)
	}

	o.Status = OrderStatusRejected
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()

	event := events.NewEvent(o.ID, events.OrderRejectedEvent, OrderRejectedData{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Reason:     reason,
		RejectedAt: time.Now(),
	})

	o.recordEvent(event)
	return nil
}

// Events returns domain events
func (o *Order) Events() []*events.Event {
	return o.events
}

// ClearEvents clears domain events
func (o *Order) ClearEvents() {
	o.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (o *Order) recordEvent(event *events.Event) {
	o.events = append(o.events, event)
}

// Event Data Structures
type OrderCreatedData struct {
	OrderID    models.ID    `json:"order_id"`
	CustomerID string       `json:"customer_id"`
	Amount     models.Money `json:"amount"`
}

type OrderApprovedData struct {
	OrderID    models.ID `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

type OrderRejectedData struct {
	OrderID    models.ID `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
}

type OrderDeletedData struct {
	OrderID    models.ID `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Status     string    `json:"status"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// OrderRepository is the keyed order store. It applies no status-transition
// validation; that responsibility belongs to the domain type and the saga
// orchestrator.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id models.ID) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id models.ID, status OrderStatus) (*Order, error)
	Delete(ctx context.Context, id models.ID) (*Order, error)
	DeleteAll(ctx context.Context) error
}
