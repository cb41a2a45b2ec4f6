package config

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/fulfillment/order-system/credit-service/application"
	"github.com/fulfillment/order-system/credit-service/domain"
	"github.com/fulfillment/order-system/credit-service/handlers"
	"github.com/fulfillment/order-system/credit-service/infrastructure"
	sharedinfra "github.com/fulfillment/order-system/shared/infrastructure"
)

type Dependencies struct {
	// Ledger
	CreditLedger *infrastructure.MemoryCreditLedger

	// Maintenance switch; flipping it makes the reserve endpoint answer 503
	Maintenance *atomic.Bool

	// Use Cases
	ReserveCredit      *application.ReserveCredit
	ReleaseReservation *application.ReleaseReservation

	// HTTP Handlers
	CreditHandlers *handlers.CreditHandlers

	// Event Handlers
	CreditEventHandlers *handlers.CreditEventHandlers

	// Infrastructure
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	EventSubscriber *sharedinfra.SQSSubscriberAdapter
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize the ledger and seed configured accounts
	ledger := infrastructure.NewMemoryCreditLedger()
	for _, account := range config.Accounts {
		err := ledger.SeedAccount(ctx, &domain.CreditAccount{
			CustomerID: account.CustomerID,
			Limit:      account.Limit,
			Currency:   account.Currency,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed account %s: %w", account.CustomerID, err)
		}
	}
	deps.CreditLedger = ledger

	deps.Maintenance = &atomic.Bool{}
	deps.Maintenance.Store(config.Maintenance)

	// Initialize AWS infrastructure
	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	// Initialize use cases
	deps.ReserveCredit = application.NewReserveCredit(ledger, eventPublisher, deps.Maintenance)
	deps.ReleaseReservation = application.NewReleaseReservation(ledger, eventPublisher)

	// Initialize handlers
	deps.CreditHandlers = handlers.NewCreditHandlers(deps.ReserveCredit)
	deps.CreditEventHandlers = handlers.NewCreditEventHandlers(deps.ReleaseReservation)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
