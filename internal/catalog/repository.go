package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gvstock/gvstock/internal/shared"
)

// ErrDuplicateSKU indicates the SKU is already taken.
var ErrDuplicateSKU = errors.New("catalog: sku already exists")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, input CreateInput) (Product, error)
	Update(ctx context.Context, input UpdateInput) (Product, error)
	Get(ctx context.Context, productID int64) (Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error)
}

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, sku, category, price, stock, created_at, updated_at`

// Insert creates a product with zero stock.
func (r *Repository) Insert(ctx context.Context, input CreateInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO catalog (name, sku, category, price, stock, created_at, updated_at)
VALUES ($1,$2,$3,$4,0,NOW(),NOW()) RETURNING `+productColumns,
		input.Name, input.SKU, input.Category, input.Price)
	product, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, err
	}
	return product, nil
}

// Update edits name, category and price. Stock is owned by the ledger.
func (r *Repository) Update(ctx context.Context, input UpdateInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE catalog SET name=$2, category=$3, price=$4, updated_at=NOW()
WHERE id=$1 RETURNING `+productColumns,
		input.ProductID, input.Name, input.Category, input.Price)
	return scanProduct(row)
}

// Get loads one product.
func (r *Repository) Get(ctx context.Context, productID int64) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM catalog WHERE id=$1`, productID))
}

// List pages through products, name search and category filter optional.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR sku ILIKE $%d)`, len(args), len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(` AND category=$%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM catalog`+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, err
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM catalog`+where+
		fmt.Sprintf(` ORDER BY name ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		products = append(products, product)
	}
	return products, page, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}
