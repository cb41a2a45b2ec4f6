package infrastructure

import (
	"context"

	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

var _ events.Publisher = (*ArchivingPublisher)(nil)

// ArchivingPublisher appends events to an event store before forwarding them
// to the downstream publisher. The archive keeps a replayable audit trail of
// every lifecycle event even when downstream delivery fails.
type ArchivingPublisher struct {
	store events.EventStore
	next  events.Publisher
}

// NewArchivingPublisher creates a publisher that archives before forwarding
func NewArchivingPublisher(store events.EventStore, next events.Publisher) *ArchivingPublisher {
	return &ArchivingPublisher{
		store: store,
		next:  next,
	}
}

// Publish archives the events per aggregate and forwards them downstream
func (p *ArchivingPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	byAggregate := make(map[models.ID][]*events.Event)
	for _, event := range evts {
		byAggregate[event.AggregateID] = append(byAggregate[event.AggregateID], event)
	}

	for aggregateID, batch := range byAggregate {
		existing, err := p.store.GetEvents(ctx, aggregateID)
		if err != nil {
			return errors.Wrap(err, "failed to load event stream")
		}

		if err := p.store.SaveEvents(ctx, aggregateID, batch, len(existing)); err != nil {
			return errors.Wrap(err, "failed to archive events")
		}
	}

	return p.next.Publish(ctx, evts...)
}
