package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fulfillment/order-system/credit-service/domain"
	"github.com/fulfillment/order-system/credit-service/infrastructure"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectingPublisher records published events
type collectingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *collectingPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *collectingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, event := range p.events {
		types[i] = event.EventType
	}
	return types
}

func seededLedger(t *testing.T, limit int64) *infrastructure.MemoryCreditLedger {
	t.Helper()
	ledger := infrastructure.NewMemoryCreditLedger()
	require.NoError(t, ledger.SeedAccount(context.Background(), &domain.CreditAccount{
		CustomerID: "customer-1",
		Limit:      limit,
		Currency:   "USD",
	}))
	return ledger
}

func reserveCommand(orderID models.ID, amount int64) *ReserveCreditCommand {
	return &ReserveCreditCommand{
		IdempotencyKey: orderID.String(),
		OrderID:        orderID.String(),
		CustomerID:     "customer-1",
		Amount:         amount,
		Currency:       "USD",
	}
}

func TestReserveCredit_Execute(t *testing.T) {
	t.Run("successful reservation commits credit", func(t *testing.T) {
		ledger := seededLedger(t, 10000)
		publisher := &collectingPublisher{}
		useCase := NewReserveCredit(ledger, publisher, &atomic.Bool{})

		orderID := models.GenerateUUID()
		result, err := useCase.Execute(context.Background(), reserveCommand(orderID, 5000))

		require.NoError(t, err)
		assert.Equal(t, orderID.String(), result.OrderID)
		assert.Equal(t, string(domain.ReservationStatusReserved), result.Status)
		assert.False(t, result.Replayed)

		account, err := ledger.Account(context.Background(), "customer-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5000), account.Available())

		assert.Contains(t, publisher.eventTypes(), events.CreditReservationSucceededEvent)
	})

	t.Run("replayed idempotency key never reserves twice", func(t *testing.T) {
		ledger := seededLedger(t, 10000)
		publisher := &collectingPublisher{}
		useCase := NewReserveCredit(ledger, publisher, &atomic.Bool{})

		orderID := models.GenerateUUID()
		cmd := reserveCommand(orderID, 5000)

		first, err := useCase.Execute(context.Background(), cmd)
		require.NoError(t, err)
		assert.False(t, first.Replayed)

		second, err := useCase.Execute(context.Background(), cmd)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Status, second.Status)

		account, err := ledger.Account(context.Background(), "customer-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5000), account.Available(), "credit must be reserved exactly once")

		// Only the original attempt publishes an outcome
		assert.Len(t, publisher.eventTypes(), 1)
	})

	t.Run("insufficient credit is rejected", func(t *testing.T) {
		ledger := seededLedger(t, 1000)
		publisher := &collectingPublisher{}
		useCase := NewReserveCredit(ledger, publisher, &atomic.Bool{})

		orderID := models.GenerateUUID()
		result, err := useCase.Execute(context.Background(), reserveCommand(orderID, 5000))

		assert.ErrorIs(t, err, domain.ErrInsufficientCredit)
		assert.Nil(t, result)

		account, accErr := ledger.Account(context.Background(), "customer-1")
		require.NoError(t, accErr)
		assert.Equal(t, int64(1000), account.Available(), "declined attempts must not commit credit")

		assert.Contains(t, publisher.eventTypes(), events.CreditReservationFailedEvent)
	})

	t.Run("declined outcome replays as declined", func(t *testing.T) {
		ledger := seededLedger(t, 1000)
		useCase := NewReserveCredit(ledger, &collectingPublisher{}, &atomic.Bool{})

		orderID := models.GenerateUUID()
		cmd := reserveCommand(orderID, 5000)

		_, err := useCase.Execute(context.Background(), cmd)
		assert.ErrorIs(t, err, domain.ErrInsufficientCredit)

		// Freeing up credit must not change the recorded answer for this key
		_, err = useCase.Execute(context.Background(), cmd)
		assert.ErrorIs(t, err, domain.ErrInsufficientCredit)
	})

	t.Run("maintenance mode refuses all requests", func(t *testing.T) {
		ledger := seededLedger(t, 10000)
		maintenance := &atomic.Bool{}
		maintenance.Store(true)
		useCase := NewReserveCredit(ledger, &collectingPublisher{}, maintenance)

		result, err := useCase.Execute(context.Background(), reserveCommand(models.GenerateUUID(), 5000))

		assert.ErrorIs(t, err, ErrServiceUnavailable)
		assert.Nil(t, result)

		account, accErr := ledger.Account(context.Background(), "customer-1")
		require.NoError(t, accErr)
		assert.Equal(t, int64(10000), account.Available())
	})

	t.Run("unknown customer", func(t *testing.T) {
		ledger := infrastructure.NewMemoryCreditLedger()
		useCase := NewReserveCredit(ledger, &collectingPublisher{}, &atomic.Bool{})

		result, err := useCase.Execute(context.Background(), reserveCommand(models.GenerateUUID(), 5000))

		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		assert.Nil(t, result)
	})

	t.Run("validation failures", func(t *testing.T) {
		useCase := NewReserveCredit(seededLedger(t, 10000), &collectingPublisher{}, &atomic.Bool{})
		orderID := models.GenerateUUID()

		tests := []struct {
			name          string
			mutate        func(*ReserveCreditCommand)
			expectedError string
		}{
			{
				name:          "missing idempotency key",
				mutate:        func(cmd *ReserveCreditCommand) { cmd.IdempotencyKey = "" },
				expectedError: "idempotency key is required",
			},
			{
				name:          "missing order ID",
				mutate:        func(cmd *ReserveCreditCommand) { cmd.OrderID = "" },
				expectedError: "order ID is required",
			},
			{
				name:          "missing customer ID",
				mutate:        func(cmd *ReserveCreditCommand) { cmd.CustomerID = "" },
				expectedError: "customer ID is required",
			},
			{
				name:          "non-positive amount",
				mutate:        func(cmd *ReserveCreditCommand) { cmd.Amount = -1 },
				expectedError: "amount must be positive",
			},
			{
				name:          "missing currency",
				mutate:        func(cmd *ReserveCreditCommand) { cmd.Currency = "" },
				expectedError: "currency is required",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cmd := reserveCommand(orderID, 5000)
				tt.mutate(cmd)

				result, err := useCase.Execute(context.Background(), cmd)

				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
			})
		}
	})
}

func TestReleaseReservation_Execute(t *testing.T) {
	t.Run("release frees committed credit", func(t *testing.T) {
		ledger := seededLedger(t, 10000)
		publisher := &collectingPublisher{}
		reserve := NewReserveCredit(ledger, publisher, &atomic.Bool{})
		release := NewReleaseReservation(ledger, publisher)

		orderID := models.GenerateUUID()
		_, err := reserve.Execute(context.Background(), reserveCommand(orderID, 5000))
		require.NoError(t, err)

		err = release.Execute(context.Background(), &ReleaseReservationCommand{OrderID: orderID.String()})
		require.NoError(t, err)

		account, err := ledger.Account(context.Background(), "customer-1")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), account.Available())

		assert.Contains(t, publisher.eventTypes(), events.CreditReservationReleasedEvent)
	})

	t.Run("release without a reservation is a no-op", func(t *testing.T) {
		ledger := seededLedger(t, 10000)
		release := NewReleaseReservation(ledger, &collectingPublisher{})

		err := release.Execute(context.Background(), &ReleaseReservationCommand{OrderID: models.GenerateUUID().String()})
		assert.NoError(t, err)
	})

	t.Run("double release keeps the books balanced", func(t *testing.T) {
		ledger := seededLedger(t, 10000)
		publisher := &collectingPublisher{}
		reserve := NewReserveCredit(ledger, publisher, &atomic.Bool{})
		release := NewReleaseReservation(ledger, publisher)

		orderID := models.GenerateUUID()
		_, err := reserve.Execute(context.Background(), reserveCommand(orderID, 5000))
		require.NoError(t, err)

		cmd := &ReleaseReservationCommand{OrderID: orderID.String()}
		require.NoError(t, release.Execute(context.Background(), cmd))
		require.NoError(t, release.Execute(context.Background(), cmd))

		account, err := ledger.Account(context.Background(), "customer-1")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), account.Available())
	})
}
