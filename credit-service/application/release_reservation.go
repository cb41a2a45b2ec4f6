package application

import (
	"context"

	"github.com/fulfillment/order-system/credit-service/domain"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// ReleaseReservationCommand represents the command to free an order's
// reserved credit
type ReleaseReservationCommand struct {
	OrderID string `json:"order_id"`
}

// ReleaseReservation use case: frees credit committed for an order that was
// deleted after approval. Releasing is idempotent; a reservation already
// released or never committed is left as-is.
type ReleaseReservation struct {
	ledger         domain.CreditLedger
	eventPublisher events.Publisher
}

// NewReleaseReservation creates a new ReleaseReservation use case
func NewReleaseReservation(ledger domain.CreditLedger, eventPublisher events.Publisher) *ReleaseReservation {
	return &ReleaseReservation{
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Execute executes the release reservation use case
func (uc *ReleaseReservation) Execute(ctx context.Context, cmd *ReleaseReservationCommand) error {
	if cmd.OrderID == "" {
		return errors.New("order ID is required")
	}

	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "invalid order ID")
	}

	reservation, err := uc.ledger.Release(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			// Nothing was ever reserved for this order; nothing to release
			return nil
		}
		return err
	}

	event := events.NewEvent(reservation.OrderID, events.CreditReservationReleasedEvent, ReservationEventData{
		OrderID:    reservation.OrderID,
		CustomerID: reservation.CustomerID,
		Amount:     reservation.Amount,
		Currency:   reservation.Currency,
		Status:     string(reservation.Status),
	}).WithCorrelationID(reservation.OrderID)

	return uc.eventPublisher.Publish(ctx, event)
}
