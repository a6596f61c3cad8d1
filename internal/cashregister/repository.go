package cashregister

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
	GetRegisterForUpdate(ctx context.Context, registerID int64) (Register, error)
	FindOpenForUpdate(ctx context.Context) (Register, error)
	InsertTransaction(ctx context.Context, txn Transaction) (int64, error)
	AdjustAmount(ctx context.Context, registerID int64, delta float64) (float64, error)
	SetStatus(ctx context.Context, registerID int64, status RegisterStatus) error
	InsertRegister(ctx context.Context, name string, opening float64) (Register, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindOpen(ctx context.Context) (Register, error)
	ListTransactions(ctx context.Context, registerID int64, limit int) ([]Transaction, error)
}

// Repository persists registers and their journal in PostgreSQL.
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
		return errors.New("cashregister repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const registerColumns = `id, name, current_amount, status, opened_at, closed_at`

// FindOpen returns the open register, newest first when several are open.
func (r *Repository) FindOpen(ctx context.Context) (Register, error) {
	return scanRegister(r.pool.QueryRow(ctx, `SELECT `+registerColumns+`
FROM cash_registers WHERE status='open' ORDER BY opened_at DESC LIMIT 1`))
}

// ListTransactions lists the journal for a register, newest first.
func (r *Repository) ListTransactions(ctx context.Context, registerID int64, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, register_id, type, amount, description, created_at
FROM cash_register_transactions WHERE register_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, registerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := []Transaction{}
	for rows.Next() {
		var txn Transaction
		if err := rows.Scan(&txn.ID, &txn.RegisterID, &txn.Type, &txn.Amount, &txn.Description, &txn.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *txRepository) GetRegisterForUpdate(ctx context.Context, registerID int64) (Register, error) {
	return scanRegister(r.tx.QueryRow(ctx, `SELECT `+registerColumns+`
FROM cash_registers WHERE id=$1 FOR UPDATE`, registerID))
}

func (r *txRepository) FindOpenForUpdate(ctx context.Context) (Register, error) {
	return scanRegister(r.tx.QueryRow(ctx, `SELECT `+registerColumns+`
FROM cash_registers WHERE status='open' ORDER BY opened_at DESC LIMIT 1 FOR UPDATE`))
}

func (r *txRepository) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO cash_register_transactions (register_id, type, amount, description, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`, txn.RegisterID, string(txn.Type), txn.Amount, txn.Description).Scan(&id)
	return id, err
}

func (r *txRepository) AdjustAmount(ctx context.Context, registerID int64, delta float64) (float64, error) {
	var amount float64
	err := r.tx.QueryRow(ctx, `UPDATE cash_registers SET current_amount = current_amount + $2
WHERE id=$1 RETURNING current_amount`, registerID, delta).Scan(&amount)
	return amount, err
}

func (r *txRepository) SetStatus(ctx context.Context, registerID int64, status RegisterStatus) error {
	if status == RegisterClosed {
		_, err := r.tx.Exec(ctx, `UPDATE cash_registers SET status='closed', closed_at=NOW() WHERE id=$1`, registerID)
		return err
	}
	_, err := r.tx.Exec(ctx, `UPDATE cash_registers SET status='open', closed_at=NULL WHERE id=$1`, registerID)
	return err
}

func (r *txRepository) InsertRegister(ctx context.Context, name string, opening float64) (Register, error) {
	return scanRegister(r.tx.QueryRow(ctx, `INSERT INTO cash_registers (name, current_amount, status, opened_at)
VALUES ($1,$2,'open',NOW()) RETURNING `+registerColumns, name, opening))
}

func scanRegister(row pgx.Row) (Register, error) {
	var reg Register
	err := row.Scan(&reg.ID, &reg.Name, &reg.CurrentAmount, &reg.Status, &reg.OpenedAt, &reg.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Register{}, shared.ErrNotFound
		}
		return Register{}, err
	}
	return reg, nil
}
