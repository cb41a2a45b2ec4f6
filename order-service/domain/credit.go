package domain

import (
	"context"
	"time"

	"github.com/fulfillment/order-system/shared/models"
	"github.com/fulfillment/order-system/shared/retry"
)

// CreditReservation is one reservation request sent to the credit service.
// The order ID doubles as the idempotency key: it is sent unchanged on every
// retry so the remote side can deduplicate and never double-reserve.
type CreditReservation struct {
	OrderID    models.ID
	CustomerID string
	Amount     models.Money
}

// IdempotencyKey returns the stable key attached to every attempt
func (r CreditReservation) IdempotencyKey() string {
	return r.OrderID.String()
}

// ReservationResult is the classified result of one reservation attempt
type ReservationResult struct {
	Outcome    retry.Outcome
	Reason     string
	RetryAfter time.Duration
}

// CreditReserver invokes the external credit service and classifies the
// transport-level result into a retry outcome. Network-level errors are
// classified as transient inside Reserve; the error return is reserved for
// context cancellation.
type CreditReserver interface {
	Reserve(ctx context.Context, reservation CreditReservation) (ReservationResult, error)
}
