package config

import (
	"fmt"

	"github.com/fulfillment/order-system/order-service/application"
	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/order-service/handlers"
	"github.com/fulfillment/order-system/order-service/infrastructure"
	"github.com/fulfillment/order-system/order-service/saga"
	"github.com/fulfillment/order-system/shared/events"
	sharedinfra "github.com/fulfillment/order-system/shared/infrastructure"
	"github.com/fulfillment/order-system/shared/retry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Dependencies struct {
	// Database (nil when storage is memory)
	DB *sqlx.DB

	// Repositories
	OrderRepository domain.OrderRepository

	// Saga
	Orchestrator *saga.Orchestrator

	// Use Cases
	CreateOrder     *application.CreateOrder
	GetOrder        *application.GetOrder
	ListOrders      *application.ListOrders
	ApproveOrder    *application.ApproveOrder
	RejectOrder     *application.RejectOrder
	DeleteOrder     *application.DeleteOrder
	DeleteAllOrders *application.DeleteAllOrders

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Infrastructure
	CreditClient   *infrastructure.HTTPCreditClient
	EventPublisher *sharedinfra.SNSPublisherAdapter
	EventStore     *sharedinfra.PostgresEventStore
}

func BuildDependencies(config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize storage
	switch config.Storage {
	case "postgres":
		db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.DB = db
		deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
	default:
		deps.OrderRepository = infrastructure.NewMemoryOrderRepository()
	}

	// Initialize event publishing
	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	// With postgres storage every published event is archived to the event
	// stream before it goes out to SNS
	var publisher events.Publisher = eventPublisher
	if deps.DB != nil {
		deps.EventStore = sharedinfra.NewPostgresEventStore(deps.DB)
		publisher = sharedinfra.NewArchivingPublisher(deps.EventStore, eventPublisher)
	}

	// Initialize credit reservation client
	deps.CreditClient = infrastructure.NewHTTPCreditClient(config.Credit.BaseURL, config.CreditTimeout())

	// Initialize the saga orchestrator
	policy, err := retry.NewPolicy(config.Saga.MaxAttempts, config.Saga.InitialBackoff(), config.Saga.MaxBackoff())
	if err != nil {
		return nil, fmt.Errorf("invalid saga retry policy: %w", err)
	}
	deps.Orchestrator = saga.NewOrchestrator(deps.CreditClient, deps.OrderRepository, policy, publisher)

	// Initialize use cases
	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, publisher, deps.Orchestrator)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.ListOrders = application.NewListOrders(deps.OrderRepository)
	deps.ApproveOrder = application.NewApproveOrder(deps.OrderRepository, publisher, deps.Orchestrator)
	deps.RejectOrder = application.NewRejectOrder(deps.OrderRepository, publisher, deps.Orchestrator)
	deps.DeleteOrder = application.NewDeleteOrder(deps.OrderRepository, publisher, deps.Orchestrator)
	deps.DeleteAllOrders = application.NewDeleteAllOrders(deps.OrderRepository, publisher, deps.Orchestrator)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(
		deps.CreateOrder,
		deps.GetOrder,
		deps.ListOrders,
		deps.ApproveOrder,
		deps.RejectOrder,
		deps.DeleteOrder,
		deps.DeleteAllOrders,
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.Orchestrator != nil {
		d.Orchestrator.CancelAll()
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
