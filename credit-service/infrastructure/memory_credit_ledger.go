package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/fulfillment/order-system/credit-service/domain"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

// MemoryCreditLedger implements CreditLedger with in-process maps behind a
// single mutex, making reserve-and-record atomic.
type MemoryCreditLedger struct {
	mu           sync.Mutex
	accounts     map[string]*domain.CreditAccount
	reservations map[string]*domain.Reservation // keyed by idempotency key
	byOrder      map[models.ID]string           // order id -> idempotency key
}

// NewMemoryCreditLedger creates a new in-memory credit ledger
func NewMemoryCreditLedger() *MemoryCreditLedger {
	return &MemoryCreditLedger{
		accounts:     make(map[string]*domain.CreditAccount),
		reservations: make(map[string]*domain.Reservation),
		byOrder:      make(map[models.ID]string),
	}
}

// SeedAccount registers a customer's credit account
func (l *MemoryCreditLedger) SeedAccount(ctx context.Context, account *domain.CreditAccount) error {
	if account.CustomerID == "" {
		return errors.New("customer ID is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	copied := *account
	l.accounts[account.CustomerID] = &copied
	return nil
}

// Account returns the account for a customer
func (l *MemoryCreditLedger) Account(ctx context.Context, customerID string) (*domain.CreditAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, exists := l.accounts[customerID]
	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	copied := *account
	return &copied, nil
}

// Reserve applies a reservation atomically. A replayed idempotency key
// returns the recorded reservation without touching the account again.
func (l *MemoryCreditLedger) Reserve(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, exists := l.reservations[reservation.IdempotencyKey]; exists {
		copied := *existing
		return &copied, false, nil
	}

	account, exists := l.accounts[reservation.CustomerID]
	if !exists {
		return nil, false, domain.ErrAccountNotFound
	}

	now := time.Now()
	recorded := *reservation
	recorded.CreatedAt = now
	recorded.UpdatedAt = now

	if account.Available() < reservation.Amount {
		recorded.Status = domain.ReservationStatusDeclined
	} else {
		account.Reserved += reservation.Amount
		recorded.Status = domain.ReservationStatusReserved
	}

	l.reservations[recorded.IdempotencyKey] = &recorded
	l.byOrder[recorded.OrderID] = recorded.IdempotencyKey

	copied := recorded
	return &copied, true, nil
}

// Release frees the credit committed for an order's reservation
func (l *MemoryCreditLedger) Release(ctx context.Context, orderID models.ID) (*domain.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, exists := l.byOrder[orderID]
	if !exists {
		return nil, domain.ErrReservationNotFound
	}

	reservation := l.reservations[key]
	if reservation.Status == domain.ReservationStatusReserved {
		if account, ok := l.accounts[reservation.CustomerID]; ok {
			account.Reserved -= reservation.Amount
		}
		reservation.Status = domain.ReservationStatusReleased
		reservation.UpdatedAt = time.Now()
	}

	copied := *reservation
	return &copied, nil
}
