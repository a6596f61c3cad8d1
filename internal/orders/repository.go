package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gvstock/gvstock/internal/platform/db"
	"github.com/gvstock/gvstock/internal/shared"
)

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	InsertOrder(ctx context.Context, order Order) (int64, error)
	InsertItem(ctx context.Context, item OrderItem) (int64, error)
	GetOrderForUpdate(ctx context.Context, orderID int64) (Order, error)
	UpdateHeader(ctx context.Context, order Order) error
	CountPayments(ctx context.Context, orderID int64) (int, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, orderID int64) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error)
}

// Repository persists orders in PostgreSQL.
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
		return errors.New("orders repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const orderColumns = `id, customer_name, warehouse_id, total, discount, final_total,
paid_amount, remaining_amount, payment_status, delivery_status, version, created_at, updated_at`

// Get loads one order with its items.
func (r *Repository) Get(ctx context.Context, orderID int64) (Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return Order{}, err
	}
	items, err := r.listItems(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	order.Items = items
	return order, nil
}

// List pages through orders, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where += fmt.Sprintf(` AND payment_status=$%d`, len(args))
	}
	if filter.DeliveryStatus != "" {
		args = append(args, filter.DeliveryStatus)
		where += fmt.Sprintf(` AND delivery_status=$%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, err
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	defer rows.Close()

	result := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		result = append(result, order)
	}
	return result, page, rows.Err()
}

func (r *Repository) listItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, quantity, price, discount, total,
delivered_quantity, delivery_status FROM order_items WHERE order_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price,
			&item.Discount, &item.Total, &item.DeliveredQuantity, &item.DeliveryStatus); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *txRepository) InsertOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO orders
(customer_name, warehouse_id, total, discount, final_total, paid_amount, remaining_amount,
 payment_status, delivery_status, version, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,0,$5,'pending','pending',1,NOW(),NOW()) RETURNING id`,
		order.CustomerName, order.WarehouseID, order.Total, order.Discount, order.FinalTotal).Scan(&id)
	return id, err
}

func (r *txRepository) InsertItem(ctx context.Context, item OrderItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO order_items
(order_id, product_id, quantity, price, discount, total, delivered_quantity, delivery_status)
VALUES ($1,$2,$3,$4,$5,$6,0,'pending') RETURNING id`,
		item.OrderID, item.ProductID, item.Quantity, item.Price, item.Discount, item.Total).Scan(&id)
	return id, err
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, orderID int64) (Order, error) {
	return scanOrder(r.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
}

func (r *txRepository) UpdateHeader(ctx context.Context, order Order) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET customer_name=$2, discount=$3, final_total=$4,
remaining_amount=$4, version=version+1, updated_at=NOW() WHERE id=$1`,
		order.ID, order.CustomerName, order.Discount, order.FinalTotal)
	return err
}

func (r *txRepository) CountPayments(ctx context.Context, orderID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM order_payments WHERE order_id=$1`, orderID).Scan(&count)
	return count, err
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.WarehouseID, &o.Total, &o.Discount, &o.FinalTotal,
		&o.PaidAmount, &o.RemainingAmount, &o.PaymentStatus, &o.DeliveryStatus, &o.Version,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}
