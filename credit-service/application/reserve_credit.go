package application

import (
	"context"
	"sync/atomic"

	"github.com/fulfillment/order-system/credit-service/domain"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// ErrServiceUnavailable signals a temporary outage; callers are expected to
// retry
var ErrServiceUnavailable = errors.New("service unavailable")

// ReserveCreditCommand represents a credit reservation request
type ReserveCreditCommand struct {
	IdempotencyKey string `json:"-"`
	OrderID        string `json:"order_id"`
	CustomerID     string `json:"customer_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// ReserveCreditResponse represents the reservation outcome
type ReserveCreditResponse struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	Replayed   bool   `json:"replayed"`
}

// ReserveCredit use case. Reservation attempts deduplicate on the caller's
// idempotency key: the order service retries with the same key, and a
// replay returns the recorded outcome without committing credit twice.
type ReserveCredit struct {
	ledger         domain.CreditLedger
	eventPublisher events.Publisher
	maintenance    *atomic.Bool
}

// NewReserveCredit creates a new ReserveCredit use case
func NewReserveCredit(ledger domain.CreditLedger, eventPublisher events.Publisher, maintenance *atomic.Bool) *ReserveCredit {
	return &ReserveCredit{
		ledger:         ledger,
		eventPublisher: eventPublisher,
		maintenance:    maintenance,
	}
}

// Execute executes the reserve credit use case
func (uc *ReserveCredit) Execute(ctx context.Context, cmd *ReserveCreditCommand) (*ReserveCreditResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	if uc.maintenance != nil && uc.maintenance.Load() {
		return nil, ErrServiceUnavailable
	}

	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	reservation, created, err := uc.ledger.Reserve(ctx, &domain.Reservation{
		IdempotencyKey: cmd.IdempotencyKey,
		OrderID:        orderID,
		CustomerID:     cmd.CustomerID,
		Amount:         cmd.Amount,
		Currency:       cmd.Currency,
	})
	if err != nil {
		return nil, err
	}

	if created {
		uc.publishOutcome(ctx, reservation)
	}

	if !reservation.Reserved() {
		return nil, domain.ErrInsufficientCredit
	}

	return &ReserveCreditResponse{
		OrderID:    reservation.OrderID.String(),
		CustomerID: reservation.CustomerID,
		Amount:     reservation.Amount,
		Currency:   reservation.Currency,
		Status:     string(reservation.Status),
		Replayed:   !created,
	}, nil
}

func (uc *ReserveCredit) publishOutcome(ctx context.Context, reservation *domain.Reservation) {
	eventType := events.CreditReservationSucceededEvent
	if !reservation.Reserved() {
		eventType = events.CreditReservationFailedEvent
	}

	event := events.NewEvent(reservation.OrderID, eventType, ReservationEventData{
		OrderID:    reservation.OrderID,
		CustomerID: reservation.CustomerID,
		Amount:     reservation.Amount,
		Currency:   reservation.Currency,
		Status:     string(reservation.Status),
	}).WithCorrelationID(reservation.OrderID)

	// Reservation outcome events are informational; a publish failure must
	// not fail the reservation itself.
	_ = uc.eventPublisher.Publish(ctx, event)
}

// validateCommand validates the reserve credit command
func (uc *ReserveCredit) validateCommand(cmd *ReserveCreditCommand) error {
	if cmd.IdempotencyKey == "" {
		return errors.New("idempotency key is required")
	}

	if cmd.OrderID == "" {
		return errors.New("order ID is required")
	}

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

// ReservationEventData is the payload of reservation outcome events
type ReservationEventData struct {
	OrderID    models.ID `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
}
