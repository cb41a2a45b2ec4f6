package domain

import (
	"context"
	"time"

	"github.com/fulfillment/order-system/shared/models"
	"github.com/pkg/errors"
)

var (
	ErrInsufficientCredit  = errors.New("not enough credit")
	ErrAccountNotFound     = errors.New("credit account not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// CreditAccount holds a customer's credit limit and the amount currently
// reserved against it
type CreditAccount struct {
	CustomerID string
	Limit      int64
	Reserved   int64
	Currency   string
}

// Available returns the credit still open for reservation
func (a *CreditAccount) Available() int64 {
	return a.Limit - a.Reserved
}

// ReservationStatus records how a reservation attempt ended
type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "reserved"
	ReservationStatusDeclined ReservationStatus = "declined"
	ReservationStatusReleased ReservationStatus = "released"
)

// Reservation is one recorded reservation attempt, keyed by the caller's
// idempotency key. Declined attempts are recorded too, so a replayed key
// reproduces the original answer instead of re-running the decision.
type Reservation struct {
	IdempotencyKey string
	OrderID        models.ID
	CustomerID     string
	Amount         int64
	Currency       string
	Status         ReservationStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reserved reports whether the reservation committed credit
func (r *Reservation) Reserved() bool {
	return r.Status == ReservationStatusReserved
}

// CreditLedger applies reservations atomically. Reserve returns the
// recorded reservation and whether this call created it; a replayed
// idempotency key returns the original record with created=false and must
// never reserve credit a second time.
type CreditLedger interface {
	SeedAccount(ctx context.Context, account *CreditAccount) error
	Account(ctx context.Context, customerID string) (*CreditAccount, error)
	Reserve(ctx context.Context, reservation *Reservation) (*Reservation, bool, error)
	Release(ctx context.Context, orderID models.ID) (*Reservation, error)
}
