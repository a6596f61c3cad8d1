package fulfillment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gvstock/gvstock/internal/platform/db"
	"github.com/gvstock/gvstock/internal/shared"
)

// TxRepository exposes the transactional operations used by the service.
// SetOrderDeliveryStatus writes delivery_status (plus the version token)
// and nothing else; payment fields belong to the settlement module.
type TxRepository interface {
	GetOrderDeliveryForUpdate(ctx context.Context, orderID int64) (OrderDeliveryStatus, error)
	GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItemDelivery, error)
	UpdateItemDelivery(ctx context.Context, itemID int64, delivered float64, status ItemDeliveryStatus) error
	SetOrderDeliveryStatus(ctx context.Context, orderID int64, status OrderDeliveryStatus) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItems(ctx context.Context, orderID int64) ([]OrderItemDelivery, error)
}

// Repository persists fulfillment data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("fulfillment repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetItems lists the fulfillment view of an order's lines.
func (r *Repository) GetItems(ctx context.Context, orderID int64) ([]OrderItemDelivery, error) {
	return listItems(ctx, r.pool, orderID, false)
}

func (r *txRepository) GetOrderDeliveryForUpdate(ctx context.Context, orderID int64) (OrderDeliveryStatus, error) {
	var status OrderDeliveryStatus
	err := r.tx.QueryRow(ctx, `SELECT delivery_status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return status, nil
}

func (r *txRepository) GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItemDelivery, error) {
	return listItems(ctx, r.tx, orderID, true)
}

func (r *txRepository) UpdateItemDelivery(ctx context.Context, itemID int64, delivered float64, status ItemDeliveryStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE order_items SET delivered_quantity=$2, delivery_status=$3 WHERE id=$1`,
		itemID, delivered, string(status))
	return err
}

func (r *txRepository) SetOrderDeliveryStatus(ctx context.Context, orderID int64, status OrderDeliveryStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET delivery_status=$2, version=version+1, updated_at=NOW() WHERE id=$1`,
		orderID, string(status))
	return err
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listItems(ctx context.Context, q queryer, orderID int64, forUpdate bool) ([]OrderItemDelivery, error) {
	sql := `SELECT id, order_id, product_id, quantity, delivered_quantity, delivery_status
FROM order_items WHERE order_id=$1 ORDER BY id ASC`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, sql, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItemDelivery{}
	for rows.Next() {
		var item OrderItemDelivery
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.DeliveredQuantity, &item.Status); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
