package infrastructure

import (
	"context"
	"sync"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/models"
)

// MemoryOrderRepository implements OrderRepository with an in-process keyed
// map. All operations serialize behind one mutex; order volume is low and
// correctness matters more than throughput here.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[models.ID]*domain.Order
	ids    []models.ID // preserves insertion order for List
}

// NewMemoryOrderRepository creates a new in-memory order repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[models.ID]*domain.Order),
	}
}

// Create stores a new order, failing on id collision
func (r *MemoryOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrDuplicateOrderID
	}

	stored := *order
	stored.ClearEvents()
	r.orders[order.ID] = &stored
	r.ids = append(r.ids, order.ID)

	return nil
}

// Get returns the order with the given id
func (r *MemoryOrderRepository) Get(ctx context.Context, id models.ID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}

	copied := *order
	return &copied, nil
}

// List returns a snapshot of all orders in insertion order
func (r *MemoryOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := make([]*domain.Order, 0, len(r.ids))
	for _, id := range r.ids {
		copied := *r.orders[id]
		orders = append(orders, &copied)
	}

	return orders, nil
}

// UpdateStatus applies the status unconditionally; transition validation is
// the caller's responsibility, this layer is a dumb keyed map
func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id models.ID, status domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}

	order.Status = status
	order.Timestamps = order.Timestamps.Update()
	order.Version = order.Version.Update()

	copied := *order
	return &copied, nil
}

// Delete removes the order and returns the removed record
func (r *MemoryOrderRepository) Delete(ctx context.Context, id models.ID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}

	delete(r.orders, id)
	for i, storedID := range r.ids {
		if storedID == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}

	copied := *order
	return &copied, nil
}

// DeleteAll clears all orders
func (r *MemoryOrderRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders = make(map[models.ID]*domain.Order)
	r.ids = nil

	return nil
}
