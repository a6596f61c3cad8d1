package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gvstock/gvstock/internal/platform/db"
)

// ErrStockNotFound indicates a missing warehouse_stock row.
var ErrStockNotFound = errors.New("inventory: warehouse stock not found")

// ErrPrincipalNotFound indicates a missing stock_principal row.
var ErrPrincipalNotFound = errors.New("inventory: principal stock not found")

// TxRepository exposes the transactional operations used by the service.
// Every aggregate touched by a movement is written through the same
// transaction so the mirrors cannot diverge on a partial failure.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, warehouseID, productID int64) (WarehouseStock, error)
	UpsertStock(ctx context.Context, stock WarehouseStock) error
	InsertMovement(ctx context.Context, movement StockMovement) (int64, error)
	AdjustCatalogStock(ctx context.Context, productID int64, delta float64) error
	LookupNames(ctx context.Context, warehouseID, productID int64) (article, entrepot string, err error)
	GetPrincipalForUpdate(ctx context.Context, article, entrepot string) (PrincipalStock, error)
	UpsertPrincipal(ctx context.Context, stock PrincipalStock) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStock(ctx context.Context, warehouseID, productID int64) (WarehouseStock, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, error)
}

// Repository persists the stock ledger in PostgreSQL.
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
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetStock returns the current aggregate for (warehouse, product).
func (r *Repository) GetStock(ctx context.Context, warehouseID, productID int64) (WarehouseStock, error) {
	var stock WarehouseStock
	err := r.pool.QueryRow(ctx, `SELECT id, warehouse_id, product_id, quantity, unit_price, total_value, updated_at
FROM warehouse_stock WHERE warehouse_id=$1 AND product_id=$2`, warehouseID, productID).
		Scan(&stock.ID, &stock.WarehouseID, &stock.ProductID, &stock.Quantity, &stock.UnitPrice, &stock.TotalValue, &stock.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WarehouseStock{WarehouseID: warehouseID, ProductID: productID}, ErrStockNotFound
		}
		return WarehouseStock{}, err
	}
	return stock, nil
}

// ListMovements lists movement log entries, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, warehouse_id, product_id, quantity, unit_price, total_value, type, reason, reference, created_at
FROM warehouse_stock_movements
WHERE ($1 = 0 OR warehouse_id = $1)
  AND ($2 = 0 OR product_id = $2)
  AND ($3 = '' OR type = $3)
  AND created_at BETWEEN COALESCE($4, '-infinity') AND COALESCE($5, 'infinity')
ORDER BY created_at DESC, id DESC
LIMIT $6`, filter.WarehouseID, filter.ProductID, string(filter.Type), nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []StockMovement{}
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.WarehouseID, &m.ProductID, &m.Quantity, &m.UnitPrice, &m.TotalValue, &m.Type, &m.Reason, &m.Reference, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, warehouseID, productID int64) (WarehouseStock, error) {
	var stock WarehouseStock
	err := r.tx.QueryRow(ctx, `SELECT id, warehouse_id, product_id, quantity, unit_price, total_value, updated_at
FROM warehouse_stock WHERE warehouse_id=$1 AND product_id=$2 FOR UPDATE`, warehouseID, productID).
		Scan(&stock.ID, &stock.WarehouseID, &stock.ProductID, &stock.Quantity, &stock.UnitPrice, &stock.TotalValue, &stock.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WarehouseStock{WarehouseID: warehouseID, ProductID: productID}, ErrStockNotFound
		}
		return WarehouseStock{}, err
	}
	return stock, nil
}

func (r *txRepository) UpsertStock(ctx context.Context, stock WarehouseStock) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO warehouse_stock (warehouse_id, product_id, quantity, unit_price, total_value, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (warehouse_id, product_id) DO UPDATE SET quantity=EXCLUDED.quantity, unit_price=EXCLUDED.unit_price, total_value=EXCLUDED.total_value, updated_at=NOW()`,
		stock.WarehouseID, stock.ProductID, stock.Quantity, stock.UnitPrice, stock.TotalValue)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO warehouse_stock_movements (warehouse_id, product_id, quantity, unit_price, total_value, type, reason, reference, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		m.WarehouseID, m.ProductID, m.Quantity, m.UnitPrice, m.TotalValue, string(m.Type), m.Reason, m.Reference).Scan(&id)
	return id, err
}

// AdjustCatalogStock updates the denormalized per-product mirror with a
// single server-side increment, clamped at zero on decrements.
func (r *txRepository) AdjustCatalogStock(ctx context.Context, productID int64, delta float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE catalog SET stock = GREATEST(stock + $2, 0), updated_at = NOW() WHERE id = $1`, productID, delta)
	return err
}

func (r *txRepository) LookupNames(ctx context.Context, warehouseID, productID int64) (string, string, error) {
	var article, entrepot string
	err := r.tx.QueryRow(ctx, `SELECT p.name, w.name FROM catalog p, warehouses w WHERE p.id=$1 AND w.id=$2`, productID, warehouseID).
		Scan(&article, &entrepot)
	if err != nil {
		return "", "", err
	}
	return article, entrepot, nil
}

func (r *txRepository) GetPrincipalForUpdate(ctx context.Context, article, entrepot string) (PrincipalStock, error) {
	var ps PrincipalStock
	err := r.tx.QueryRow(ctx, `SELECT id, article, entrepot, quantite, prix_unitaire, valeur_totale, categorie_action, updated_at
FROM stock_principal WHERE article=$1 AND entrepot=$2 FOR UPDATE`, article, entrepot).
		Scan(&ps.ID, &ps.Article, &ps.Entrepot, &ps.Quantite, &ps.PrixUnitaire, &ps.ValeurTotale, &ps.CategorieAction, &ps.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PrincipalStock{Article: article, Entrepot: entrepot}, ErrPrincipalNotFound
		}
		return PrincipalStock{}, err
	}
	return ps, nil
}

func (r *txRepository) UpsertPrincipal(ctx context.Context, ps PrincipalStock) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_principal (article, entrepot, quantite, prix_unitaire, valeur_totale, categorie_action, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
ON CONFLICT (article, entrepot) DO UPDATE SET quantite=EXCLUDED.quantite, prix_unitaire=EXCLUDED.prix_unitaire, valeur_totale=EXCLUDED.valeur_totale, categorie_action=EXCLUDED.categorie_action, updated_at=NOW()`,
		ps.Article, ps.Entrepot, ps.Quantite, ps.PrixUnitaire, ps.ValeurTotale, ps.CategorieAction)
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
