package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order in the database
type postgresOrder struct {
	ID         string    `db:"id"`
	CustomerID string    `db:"customer_id"`
	Amount     int64     `db:"amount"`
	Currency   string    `db:"currency"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

// Create inserts a new order
func (r *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, amount, currency, status,
			created_at, updated_at, version
		) VALUES (
			:id, :customer_id, :amount, :currency, :status,
			:created_at, :updated_at, :version
		) ON CONFLICT (id) DO NOTHING`

	result, err := r.db.NamedExecContext(ctx, query, r.toPostgres(order))
	if err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read insert result")
	}
	if rows == 0 {
		return domain.ErrDuplicateOrderID
	}

	return nil
}

// Get finds an order by ID
func (r *PostgresOrderRepository) Get(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, amount, currency, status,
			   created_at, updated_at, version
		FROM orders
		WHERE id = $1`

	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	return r.toDomain(&pgOrder)
}

// List returns all orders in insertion order
func (r *PostgresOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, customer_id, amount, currency, status,
			   created_at, updated_at, version
		FROM orders
		ORDER BY created_at ASC`

	var pgOrders []postgresOrder
	if err := r.db.SelectContext(ctx, &pgOrders, query); err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	orders := make([]*domain.Order, 0, len(pgOrders))
	for i := range pgOrders {
		order, err := r.toDomain(&pgOrders[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// UpdateStatus applies the status unconditionally and returns the updated
// order
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id models.ID, status domain.OrderStatus) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET status = $2, updated_at = $3, version = version + 1
		WHERE id = $1
		RETURNING id, customer_id, amount, currency, status,
				  created_at, updated_at, version`

	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String(), string(status), time.Now())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to update order status")
	}

	return r.toDomain(&pgOrder)
}

// Delete removes the order and returns the removed record
func (r *PostgresOrderRepository) Delete(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		DELETE FROM orders
		WHERE id = $1
		RETURNING id, customer_id, amount, currency, status,
				  created_at, updated_at, version`

	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to delete order")
	}

	return r.toDomain(&pgOrder)
}

// DeleteAll clears all orders
func (r *PostgresOrderRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM orders"); err != nil {
		return errors.Wrap(err, "failed to delete all orders")
	}
	return nil
}

// toPostgres converts a domain order to its database representation
func (r *PostgresOrderRepository) toPostgres(order *domain.Order) *postgresOrder {
	return &postgresOrder{
		ID:         order.ID.String(),
		CustomerID: order.CustomerID,
		Amount:     order.Amount.Amount,
		Currency:   order.Amount.Currency,
		Status:     string(order.Status),
		CreatedAt:  order.Timestamps.CreatedAt,
		UpdatedAt:  order.Timestamps.UpdatedAt,
		Version:    order.Version.Value,
	}
}

// toDomain converts a database row to a domain order
func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder) (*domain.Order, error) {
	id, err := models.NewID(pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID in database")
	}

	return &domain.Order{
		ID:         id,
		CustomerID: pgOrder.CustomerID,
		Amount:     models.NewMoney(pgOrder.Amount, pgOrder.Currency),
		Status:     domain.OrderStatus(pgOrder.Status),
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}
