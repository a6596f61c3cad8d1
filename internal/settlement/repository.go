package settlement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gvstock/gvstock/internal/platform/db"
	"github.com/gvstock/gvstock/internal/shared"
)

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetOrderTotalsForUpdate(ctx context.Context, orderID int64) (OrderTotals, error)
	InsertPayment(ctx context.Context, payment Payment) (int64, error)
	ApplySettlement(ctx context.Context, orderID int64, amount float64, version int64) (PaymentResult, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrderTotals(ctx context.Context, orderID int64) (OrderTotals, error)
	ListPayments(ctx context.Context, orderID int64) ([]Payment, error)
}

// Repository persists settlements in PostgreSQL.
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
		return errors.New("settlement repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetOrderTotals loads the settlement view of an order.
func (r *Repository) GetOrderTotals(ctx context.Context, orderID int64) (OrderTotals, error) {
	return scanTotals(r.pool.QueryRow(ctx, `SELECT id, final_total, paid_amount, remaining_amount, payment_status, version
FROM orders WHERE id=$1`, orderID))
}

// ListPayments lists the payment ledger for an order, oldest first.
func (r *Repository) ListPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, amount, payment_method, notes, created_at
FROM order_payments WHERE order_id=$1 ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *txRepository) GetOrderTotalsForUpdate(ctx context.Context, orderID int64) (OrderTotals, error) {
	return scanTotals(r.tx.QueryRow(ctx, `SELECT id, final_total, paid_amount, remaining_amount, payment_status, version
FROM orders WHERE id=$1 FOR UPDATE`, orderID))
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO order_payments (order_id, amount, payment_method, notes, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`, p.OrderID, p.Amount, p.Method, p.Notes).Scan(&id)
	return id, err
}

// ApplySettlement updates only the three settlement fields plus the version
// token, computed server-side in a single statement so the increment cannot
// lose a concurrent update. Delivery fields are never touched here.
func (r *txRepository) ApplySettlement(ctx context.Context, orderID int64, amount float64, version int64) (PaymentResult, error) {
	var result PaymentResult
	err := r.tx.QueryRow(ctx, `UPDATE orders SET
	paid_amount = paid_amount + $2,
	remaining_amount = GREATEST(final_total - (paid_amount + $2), 0),
	payment_status = CASE
		WHEN final_total - (paid_amount + $2) <= 0 THEN 'paid'
		WHEN paid_amount + $2 > 0 THEN 'partial'
		ELSE 'pending'
	END,
	version = version + 1,
	updated_at = NOW()
WHERE id = $1 AND version = $3
RETURNING paid_amount, remaining_amount, payment_status`, orderID, amount, version).
		Scan(&result.PaidAmount, &result.RemainingAmount, &result.PaymentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentResult{}, ErrConcurrentUpdate
		}
		return PaymentResult{}, err
	}
	return result, nil
}

func scanTotals(row pgx.Row) (OrderTotals, error) {
	var totals OrderTotals
	err := row.Scan(&totals.ID, &totals.FinalTotal, &totals.PaidAmount, &totals.RemainingAmount, &totals.PaymentStatus, &totals.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderTotals{}, shared.ErrNotFound
		}
		return OrderTotals{}, err
	}
	return totals, nil
}
