package handlers

import (
	"context"
	"log"

	"github.com/fulfillment/order-system/credit-service/application"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/pkg/errors"
)

// CreditEventHandlers contains event handlers for the credit service
type CreditEventHandlers struct {
	releaseReservation *application.ReleaseReservation
}

// NewCreditEventHandlers creates new credit event handlers
func NewCreditEventHandlers(releaseReservation *application.ReleaseReservation) *CreditEventHandlers {
	return &CreditEventHandlers{
		releaseReservation: releaseReservation,
	}
}

// Handle implements the events.EventHandler interface
func (h *CreditEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.OrderDeletedEvent:
		return h.HandleOrderDeleted(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *CreditEventHandlers) HandlerID() string {
	return "credit-service-event-handler"
}

// HandleOrderDeleted frees the credit reserved for a deleted order
func (h *CreditEventHandlers) HandleOrderDeleted(ctx context.Context, event *events.Event) error {
	var data struct {
		OrderID string `json:"order_id"`
	}
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to decode order deleted event")
	}

	if data.OrderID == "" {
		return errors.New("order_id is required")
	}

	cmd := &application.ReleaseReservationCommand{OrderID: data.OrderID}
	if err := h.releaseReservation.Execute(ctx, cmd); err != nil {
		log.Printf("Failed to release reservation for order %s: %v", data.OrderID, err)
		return err
	}

	return nil
}
