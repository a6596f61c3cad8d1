package purchasing

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
	InsertReceipt(ctx context.Context, receipt Receipt) (int64, error)
	InsertLine(ctx context.Context, line ReceiptLine) (int64, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, receiptID int64) (Receipt, error)
	List(ctx context.Context, limit int) ([]Receipt, error)
}

// Repository persists receipts in PostgreSQL.
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
		return errors.New("purchasing repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Get loads one receipt with lines.
func (r *Repository) Get(ctx context.Context, receiptID int64) (Receipt, error) {
	var receipt Receipt
	err := r.pool.QueryRow(ctx, `SELECT id, supplier_name, reference, warehouse_id, total_cost, created_at
FROM purchase_receipts WHERE id=$1`, receiptID).
		Scan(&receipt.ID, &receipt.SupplierName, &receipt.Reference, &receipt.WarehouseID, &receipt.TotalCost, &receipt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, shared.ErrNotFound
		}
		return Receipt{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, receipt_id, product_id, quantity, unit_cost
FROM purchase_receipt_lines WHERE receipt_id=$1 ORDER BY id ASC`, receiptID)
	if err != nil {
		return Receipt{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line ReceiptLine
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.ProductID, &line.Quantity, &line.UnitCost); err != nil {
			return Receipt{}, err
		}
		receipt.Lines = append(receipt.Lines, line)
	}
	return receipt, rows.Err()
}

// List lists recent receipts without lines, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Receipt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_name, reference, warehouse_id, total_cost, created_at
FROM purchase_receipts ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	receipts := []Receipt{}
	for rows.Next() {
		var receipt Receipt
		if err := rows.Scan(&receipt.ID, &receipt.SupplierName, &receipt.Reference, &receipt.WarehouseID,
			&receipt.TotalCost, &receipt.CreatedAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

func (r *txRepository) InsertReceipt(ctx context.Context, receipt Receipt) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_receipts (supplier_name, reference, warehouse_id, total_cost, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`,
		receipt.SupplierName, receipt.Reference, receipt.WarehouseID, receipt.TotalCost).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLine(ctx context.Context, line ReceiptLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_receipt_lines (receipt_id, product_id, quantity, unit_cost)
VALUES ($1,$2,$3,$4) RETURNING id`, line.ReceiptID, line.ProductID, line.Quantity, line.UnitCost).Scan(&id)
	return id, err
}
