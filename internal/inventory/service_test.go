package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gvstock/gvstock/internal/shared"
)

type memoryRepo struct {
	stocks     map[string]WarehouseStock
	principals map[string]PrincipalStock
	catalog    map[int64]float64
	movements  []StockMovement
	nextID     int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		stocks:     make(map[string]WarehouseStock),
		principals: make(map[string]PrincipalStock),
		catalog:    make(map[int64]float64),
	}
}

func stockKey(warehouseID, productID int64) string {
	return fmt.Sprintf("%d:%d", warehouseID, productID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshotStocks := make(map[string]WarehouseStock, len(r.stocks))
	for k, v := range r.stocks {
		snapshotStocks[k] = v
	}
	snapshotPrincipals := make(map[string]PrincipalStock, len(r.principals))
	for k, v := range r.principals {
		snapshotPrincipals[k] = v
	}
	snapshotCatalog := make(map[int64]float64, len(r.catalog))
	for k, v := range r.catalog {
		snapshotCatalog[k] = v
	}
	movementCount := len(r.movements)

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.stocks = snapshotStocks
		r.principals = snapshotPrincipals
		r.catalog = snapshotCatalog
		r.movements = r.movements[:movementCount]
		return err
	}
	return nil
}

func (r *memoryRepo) GetStock(ctx context.Context, warehouseID, productID int64) (WarehouseStock, error) {
	if stock, ok := r.stocks[stockKey(warehouseID, productID)]; ok {
		return stock, nil
	}
	return WarehouseStock{WarehouseID: warehouseID, ProductID: productID}, ErrStockNotFound
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, error) {
	result := make([]StockMovement, len(r.movements))
	copy(result, r.movements)
	return result, nil
}

func (tx *memoryTx) GetStockForUpdate(ctx context.Context, warehouseID, productID int64) (WarehouseStock, error) {
	return tx.repo.GetStock(ctx, warehouseID, productID)
}

func (tx *memoryTx) UpsertStock(ctx context.Context, stock WarehouseStock) error {
	tx.repo.stocks[stockKey(stock.WarehouseID, stock.ProductID)] = stock
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func (tx *memoryTx) AdjustCatalogStock(ctx context.Context, productID int64, delta float64) error {
	next := tx.repo.catalog[productID] + delta
	if next < 0 {
		next = 0
	}
	tx.repo.catalog[productID] = next
	return nil
}

func (tx *memoryTx) LookupNames(ctx context.Context, warehouseID, productID int64) (string, string, error) {
	return fmt.Sprintf("product-%d", productID), fmt.Sprintf("warehouse-%d", warehouseID), nil
}

func (tx *memoryTx) GetPrincipalForUpdate(ctx context.Context, article, entrepot string) (PrincipalStock, error) {
	if ps, ok := tx.repo.principals[article+":"+entrepot]; ok {
		return ps, nil
	}
	return PrincipalStock{Article: article, Entrepot: entrepot}, ErrPrincipalNotFound
}

func (tx *memoryTx) UpsertPrincipal(ctx context.Context, ps PrincipalStock) error {
	tx.repo.principals[ps.Article+":"+ps.Entrepot] = ps
	return nil
}

func TestWeightedAverageOnStockIn(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 1, Quantity: 10, UnitPrice: 1000, Reason: "achat"})
	require.NoError(t, err)
	require.InDelta(t, 10, res.Stock.Quantity, 0.0001)
	require.InDelta(t, 1000, res.Stock.UnitPrice, 0.01)
	require.InDelta(t, 10000, res.Stock.TotalValue, 0.01)

	res, err = svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 1, Quantity: 10, UnitPrice: 2000, Reason: "achat"})
	require.NoError(t, err)
	require.InDelta(t, 20, res.Stock.Quantity, 0.0001)
	require.InDelta(t, 1500, res.Stock.UnitPrice, 0.01)
	require.InDelta(t, 30000, res.Stock.TotalValue, 0.01)

	res, err = svc.ApplyStockOut(ctx, StockOutInput{WarehouseID: 1, ProductID: 1, Quantity: 5, Reason: "vente"})
	require.NoError(t, err)
	require.InDelta(t, 15, res.Stock.Quantity, 0.0001)
	require.InDelta(t, 1500, res.Stock.UnitPrice, 0.01)
	require.InDelta(t, 22500, res.Stock.TotalValue, 0.01)
}

func TestStockOutKeepsUnitPrice(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 7, Quantity: 4, UnitPrice: 2500})
	require.NoError(t, err)

	res, err := svc.ApplyStockOut(ctx, StockOutInput{WarehouseID: 1, ProductID: 7, Quantity: 3})
	require.NoError(t, err)
	require.InDelta(t, 2500, res.Stock.UnitPrice, 0.01)
	require.InDelta(t, 2500, res.Movement.UnitPrice, 0.01)
	require.InDelta(t, 7500, res.Movement.TotalValue, 0.01)
}

func TestInsufficientStockPerformsNoWrites(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 1, Quantity: 2, UnitPrice: 100})
	require.NoError(t, err)
	movementsBefore := len(repo.movements)
	catalogBefore := repo.catalog[1]

	_, err = svc.ApplyStockOut(ctx, StockOutInput{WarehouseID: 1, ProductID: 1, Quantity: 5})
	require.True(t, shared.IsInsufficientStock(err))

	require.Len(t, repo.movements, movementsBefore)
	require.InDelta(t, catalogBefore, repo.catalog[1], 0.0001)
	stock, err := repo.GetStock(ctx, 1, 1)
	require.NoError(t, err)
	require.InDelta(t, 2, stock.Quantity, 0.0001)
}

func TestValueConservation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	type in struct{ qty, price float64 }
	ins := []in{{10, 1000}, {3, 1800}, {7, 950}, {1, 5000}}
	outs := []float64{4, 6, 2}

	var expected float64
	for _, entry := range ins {
		_, err := svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 2, ProductID: 3, Quantity: entry.qty, UnitPrice: entry.price})
		require.NoError(t, err)
		expected += entry.qty * entry.price
	}
	for _, qty := range outs {
		stock, err := repo.GetStock(ctx, 2, 3)
		require.NoError(t, err)
		res, err := svc.ApplyStockOut(ctx, StockOutInput{WarehouseID: 2, ProductID: 3, Quantity: qty})
		require.NoError(t, err)
		expected -= qty * stock.UnitPrice
		require.GreaterOrEqual(t, res.Stock.Quantity, 0.0)
	}

	stock, err := repo.GetStock(ctx, 2, 3)
	require.NoError(t, err)
	require.InDelta(t, expected, stock.TotalValue, 0.01)
	require.InDelta(t, stock.Quantity*stock.UnitPrice, stock.TotalValue, 0.01)
}

func TestCatalogMirrorTracksMovements(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 9, Quantity: 12, UnitPrice: 300})
	require.NoError(t, err)
	_, err = svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 2, ProductID: 9, Quantity: 8, UnitPrice: 350})
	require.NoError(t, err)
	require.InDelta(t, 20, repo.catalog[9], 0.0001)

	_, err = svc.ApplyStockOut(ctx, StockOutInput{WarehouseID: 1, ProductID: 9, Quantity: 5})
	require.NoError(t, err)
	require.InDelta(t, 15, repo.catalog[9], 0.0001)
}

func TestPrincipalMirrorWrittenOnEntriesOnly(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 4, Quantity: 10, UnitPrice: 1000})
	require.NoError(t, err)
	ps := repo.principals["product-4:warehouse-1"]
	require.InDelta(t, 10, ps.Quantite, 0.0001)
	require.InDelta(t, 1000, ps.PrixUnitaire, 0.01)
	require.Equal(t, "entree", ps.CategorieAction)

	_, err = svc.ApplyStockOut(ctx, StockOutInput{WarehouseID: 1, ProductID: 4, Quantity: 6})
	require.NoError(t, err)
	ps = repo.principals["product-4:warehouse-1"]
	require.InDelta(t, 10, ps.Quantite, 0.0001)
}

func TestStockInValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 0, ProductID: 1, Quantity: 1, UnitPrice: 1})
	require.True(t, shared.IsValidation(err))

	_, err = svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 1, Quantity: 0, UnitPrice: 1})
	require.True(t, shared.IsValidation(err))

	_, err = svc.ApplyStockIn(ctx, StockInInput{WarehouseID: 1, ProductID: 1, Quantity: 1, UnitPrice: -5})
	require.True(t, shared.IsValidation(err))
}
