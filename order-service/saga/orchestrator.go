package saga

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/fulfillment/order-system/shared/retry"
	"github.com/fulfillment/order-system/shared/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State represents the current state of one order's saga
type State string

const (
	StatePending  State = "pending"
	StateRetrying State = "retrying"
	StateApproved State = "approved"
	StateRejected State = "rejected"

	// StateCancelled means the saga was stopped externally (order deleted
	// mid-retry); no status update was recorded.
	StateCancelled State = "cancelled"

	// StateAbandoned means the final store update failed; the saga gave up
	// rather than retrying a store whose record is outside its control.
	StateAbandoned State = "abandoned"
)

// IsTerminal reports whether the saga has finished
func (s State) IsTerminal() bool {
	return s != StatePending && s != StateRetrying
}

// OrderStore is the narrow slice of the order store the saga needs. The
// saga reads before it writes: a terminal status set by a direct management
// call must never be rewritten.
type OrderStore interface {
	Get(ctx context.Context, id models.ID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id models.ID, status domain.OrderStatus) (*domain.Order, error)
}

// Execution tracks one running order saga
type Execution struct {
	OrderID models.ID

	mu       sync.Mutex
	state    State
	attempts int

	done   chan struct{}
	cancel context.CancelFunc
}

// Done is closed when the saga reaches a terminal state
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// State returns the current saga state
func (e *Execution) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Attempts returns how many reservation attempts have been issued
func (e *Execution) Attempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts
}

// Cancel stops the saga; no further reservation attempts are issued and no
// status update is recorded
func (e *Execution) Cancel() {
	e.cancel()
}

func (e *Execution) setState(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

func (e *Execution) recordAttempt() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts++
	return e.attempts
}

// Orchestrator drives the credit-reservation saga for orders. Each order
// runs as its own goroutine; a slow or retrying saga never blocks another.
// Compensation is rejecting the order: a failed reservation attempt never
// committed anything remote, so there is nothing else to roll back.
type Orchestrator struct {
	reserver  domain.CreditReserver
	orders    OrderStore
	policy    retry.Policy
	publisher events.Publisher
	sleep     func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	executions map[models.ID]*Execution
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithSleep overrides the inter-attempt wait, used in tests
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// NewOrchestrator creates a new saga orchestrator
func NewOrchestrator(
	reserver domain.CreditReserver,
	orders OrderStore,
	policy retry.Policy,
	publisher events.Publisher,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		reserver:   reserver,
		orders:     orders,
		policy:     policy,
		publisher:  publisher,
		sleep:      retry.Sleep,
		executions: make(map[models.ID]*Execution),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Start launches the saga for a freshly created order and returns
// immediately; the caller observes completion through the returned
// Execution or by polling order status.
func (o *Orchestrator) Start(ctx context.Context, order *domain.Order) *Execution {
	ctx, cancel := context.WithCancel(ctx)

	execution := &Execution{
		OrderID: order.ID,
		state:   StatePending,
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	o.mu.Lock()
	o.executions[order.ID] = execution
	o.mu.Unlock()

	reservation := domain.CreditReservation{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     order.Amount,
	}

	go o.run(ctx, execution, reservation)

	return execution
}

// Cancel stops the saga for the given order if one is in flight
func (o *Orchestrator) Cancel(orderID models.ID) bool {
	o.mu.Lock()
	execution, ok := o.executions[orderID]
	o.mu.Unlock()

	if !ok {
		return false
	}

	execution.Cancel()
	return true
}

// CancelAll stops every in-flight saga
func (o *Orchestrator) CancelAll() {
	o.mu.Lock()
	executions := make([]*Execution, 0, len(o.executions))
	for _, execution := range o.executions {
		executions = append(executions, execution)
	}
	o.mu.Unlock()

	for _, execution := range executions {
		execution.Cancel()
	}
}

// Execution returns the in-flight saga for an order, if any
func (o *Orchestrator) Execution(orderID models.ID) (*Execution, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	execution, ok := o.executions[orderID]
	return execution, ok
}

func (o *Orchestrator) run(ctx context.Context, execution *Execution, reservation domain.CreditReservation) {
	ctx, span := telemetry.StartSpan(ctx, "saga.order_fulfillment",
		trace.WithAttributes(
			attribute.String("order_id", reservation.OrderID.String()),
			attribute.String("customer_id", reservation.CustomerID),
		),
	)
	defer span.End()
	defer o.finish(execution)

	o.publish(ctx, events.NewEvent(reservation.OrderID, events.SagaStartedEvent, SagaStartedData{
		OrderID:     reservation.OrderID,
		CustomerID:  reservation.CustomerID,
		MaxAttempts: o.policy.MaxAttempts,
	}))

	for {
		if ctx.Err() != nil {
			execution.setState(StateCancelled)
			return
		}

		execution.setState(StateRetrying)
		attempt := execution.recordAttempt()

		result, err := o.reserver.Reserve(ctx, reservation)
		if err != nil {
			// The reserver only errors on context cancellation; the order is
			// gone or the service is shutting down, so stop silently.
			execution.setState(StateCancelled)
			return
		}

		telemetry.RecordCounter(ctx, "saga_reservation_attempts",
			"Credit reservation attempts issued by the saga orchestrator", 1,
			attribute.String("outcome", string(result.Outcome)),
		)

		o.publish(ctx, events.NewEvent(reservation.OrderID, events.CreditReservationAttemptedEvent, ReservationAttemptData{
			OrderID:    reservation.OrderID,
			CustomerID: reservation.CustomerID,
			Attempt:    attempt,
			Outcome:    string(result.Outcome),
			Reason:     result.Reason,
		}))

		switch o.policy.Decide(attempt, result.Outcome) {
		case retry.DecisionSucceed:
			o.complete(ctx, execution, reservation, attempt)
			return

		case retry.DecisionRetry:
			delay := o.policy.Backoff(attempt)
			if result.RetryAfter > delay {
				delay = result.RetryAfter
			}
			if err := o.sleep(ctx, delay); err != nil {
				execution.setState(StateCancelled)
				return
			}

		case retry.DecisionCompensate:
			o.compensate(ctx, execution, reservation, attempt, result.Reason)
			return
		}
	}
}

// complete marks the order approved after a successful reservation. The
// transition runs through the domain type so an order already moved to a
// terminal status by a direct management call stays there.
func (o *Orchestrator) complete(ctx context.Context, execution *Execution, reservation domain.CreditReservation, attempts int) {
	order, err := o.orders.Get(ctx, reservation.OrderID)
	if err != nil {
		o.abandon(ctx, execution, reservation.OrderID, err)
		return
	}

	if err := order.Approve(); err != nil {
		o.abandon(ctx, execution, reservation.OrderID, err)
		return
	}

	if _, err := o.orders.UpdateStatus(ctx, reservation.OrderID, domain.OrderStatusApproved); err != nil {
		o.abandon(ctx, execution, reservation.OrderID, err)
		return
	}

	evts := append(order.Events(), events.NewEvent(reservation.OrderID, events.SagaCompletedEvent, SagaFinishedData{
		OrderID:  reservation.OrderID,
		Attempts: attempts,
	}))
	o.publish(ctx, evts...)
	order.ClearEvents()

	execution.setState(StateApproved)
}

// compensate rejects the order. This status change is the compensating
// action: the failed reservation never committed credit on the remote side.
// Like complete, the write is conditional on the domain transition.
func (o *Orchestrator) compensate(ctx context.Context, execution *Execution, reservation domain.CreditReservation, attempts int, reason string) {
	order, err := o.orders.Get(ctx, reservation.OrderID)
	if err != nil {
		o.abandon(ctx, execution, reservation.OrderID, err)
		return
	}

	if err := order.Reject(reason); err != nil {
		o.abandon(ctx, execution, reservation.OrderID, err)
		return
	}

	if _, err := o.orders.UpdateStatus(ctx, reservation.OrderID, domain.OrderStatusRejected); err != nil {
		o.abandon(ctx, execution, reservation.OrderID, err)
		return
	}

	evts := append(order.Events(), events.NewEvent(reservation.OrderID, events.SagaCompensatedEvent, SagaFinishedData{
		OrderID:  reservation.OrderID,
		Attempts: attempts,
		Reason:   reason,
	}))
	o.publish(ctx, evts...)
	order.ClearEvents()

	execution.setState(StateRejected)
}

// abandon gives up on a saga whose terminal write could not be applied,
// because the order was deleted mid-flight or already moved to a terminal
// status by a direct management call
func (o *Orchestrator) abandon(ctx context.Context, execution *Execution, orderID models.ID, err error) {
	log.Printf("Abandoning saga for order %s: %v", orderID, err)

	o.publish(ctx, events.NewEvent(orderID, events.SagaAbandonedEvent, SagaFinishedData{
		OrderID:  orderID,
		Attempts: execution.Attempts(),
		Reason:   err.Error(),
	}))

	execution.setState(StateAbandoned)
}

func (o *Orchestrator) finish(execution *Execution) {
	o.mu.Lock()
	delete(o.executions, execution.OrderID)
	o.mu.Unlock()

	close(execution.done)
}

// publish sends saga events on a background context so a cancelled saga can
// still report its own termination
func (o *Orchestrator) publish(ctx context.Context, evts ...*events.Event) {
	if o.publisher == nil {
		return
	}

	if ctx.Err() != nil {
		ctx = context.Background()
	}

	if err := o.publisher.Publish(ctx, evts...); err != nil {
		log.Printf("Failed to publish saga events: %v", err)
	}
}

// Event Data Structures
type SagaStartedData struct {
	OrderID     models.ID `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	MaxAttempts int       `json:"max_attempts"`
}

type ReservationAttemptData struct {
	OrderID    models.ID `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Attempt    int       `json:"attempt"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
}

type SagaFinishedData struct {
	OrderID  models.ID `json:"order_id"`
	Attempts int       `json:"attempts"`
	Reason   string    `json:"reason,omitempty"`
}
