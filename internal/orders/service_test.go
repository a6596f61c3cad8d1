package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gvstock/gvstock/internal/inventory"
	"github.com/gvstock/gvstock/internal/shared"
)

type memoryRepo struct {
	orders   map[int64]Order
	items    map[int64][]OrderItem
	payments map[int64]int
	nextID   int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:   make(map[int64]Order),
		items:    make(map[int64][]OrderItem),
		payments: make(map[int64]int),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshotOrders := make(map[int64]Order, len(r.orders))
	for k, v := range r.orders {
		snapshotOrders[k] = v
	}
	snapshotItems := make(map[int64][]OrderItem, len(r.items))
	for k, v := range r.items {
		copied := make([]OrderItem, len(v))
		copy(copied, v)
		snapshotItems[k] = copied
	}

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.orders = snapshotOrders
		r.items = snapshotItems
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, orderID int64) (Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	order.Items = r.items[orderID]
	return order, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error) {
	result := []Order{}
	for _, order := range r.orders {
		if filter.PaymentStatus != "" && order.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.DeliveryStatus != "" && order.DeliveryStatus != filter.DeliveryStatus {
			continue
		}
		result = append(result, order)
	}
	return result, shared.NewPagination(filter.Page, filter.PerPage, len(result)), nil
}

func (tx *memoryTx) InsertOrder(ctx context.Context, order Order) (int64, error) {
	tx.repo.nextID++
	order.ID = tx.repo.nextID
	order.PaymentStatus = "pending"
	order.DeliveryStatus = "pending"
	order.RemainingAmount = order.FinalTotal
	tx.repo.orders[order.ID] = order
	return order.ID, nil
}

func (tx *memoryTx) InsertItem(ctx context.Context, item OrderItem) (int64, error) {
	tx.repo.nextID++
	item.ID = tx.repo.nextID
	tx.repo.items[item.OrderID] = append(tx.repo.items[item.OrderID], item)
	return item.ID, nil
}

func (tx *memoryTx) GetOrderForUpdate(ctx context.Context, orderID int64) (Order, error) {
	return tx.repo.Get(ctx, orderID)
}

func (tx *memoryTx) UpdateHeader(ctx context.Context, order Order) error {
	current := tx.repo.orders[order.ID]
	current.CustomerName = order.CustomerName
	current.Discount = order.Discount
	current.FinalTotal = order.FinalTotal
	current.RemainingAmount = order.FinalTotal
	current.Version++
	tx.repo.orders[order.ID] = current
	return nil
}

func (tx *memoryTx) CountPayments(ctx context.Context, orderID int64) (int, error) {
	return tx.repo.payments[orderID], nil
}

type stubLedger struct {
	outs []inventory.StockOutInput
	err  error
}

func (s *stubLedger) ApplyStockOut(ctx context.Context, input inventory.StockOutInput) (inventory.MovementResult, error) {
	if s.err != nil {
		return inventory.MovementResult{}, s.err
	}
	s.outs = append(s.outs, input)
	return inventory.MovementResult{}, nil
}

func TestCheckoutComputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	order, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName: "Mme Camara",
		Discount:     200,
		Items: []CheckoutItem{
			{ProductID: 1, Quantity: 2, Price: 1000, Discount: 100},
			{ProductID: 2, Quantity: 1, Price: 500},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 2300, order.Total, 0.01)
	require.InDelta(t, 2100, order.FinalTotal, 0.01)
	require.Equal(t, "pending", order.PaymentStatus)
	require.Equal(t, "pending", order.DeliveryStatus)
	require.Len(t, order.Items, 2)
	require.InDelta(t, 1800, order.Items[0].Total, 0.01)

	stored, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.InDelta(t, 2100, stored.RemainingAmount, 0.01)
	require.InDelta(t, 0, stored.PaidAmount, 0.01)
}

func TestCheckoutDeductsStockPerLine(t *testing.T) {
	repo := newMemoryRepo()
	ledger := &stubLedger{}
	svc := NewService(repo, ledger, nil, nil)

	order, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName: "Boutique Nimba",
		WarehouseID:  3,
		Items: []CheckoutItem{
			{ProductID: 1, Quantity: 2, Price: 1000},
			{ProductID: 2, Quantity: 5, Price: 400},
		},
	})
	require.NoError(t, err)
	require.Len(t, ledger.outs, 2)
	require.Equal(t, int64(3), ledger.outs[0].WarehouseID)
	require.Equal(t, "vente", ledger.outs[0].Reason)
	require.InDelta(t, 5, ledger.outs[1].Quantity, 0.0001)
	require.NotZero(t, order.ID)
}

func TestCheckoutWithoutWarehouseSkipsLedger(t *testing.T) {
	ledger := &stubLedger{}
	svc := NewService(newMemoryRepo(), ledger, nil, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName: "Comptoir",
		Items:        []CheckoutItem{{ProductID: 1, Quantity: 1, Price: 100}},
	})
	require.NoError(t, err)
	require.Empty(t, ledger.outs)
}

func TestCheckoutStockFailureIsPartial(t *testing.T) {
	repo := newMemoryRepo()
	ledger := &stubLedger{err: errors.New("ledger unavailable")}
	svc := NewService(repo, ledger, nil, nil)

	order, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName: "Comptoir",
		WarehouseID:  1,
		Items:        []CheckoutItem{{ProductID: 1, Quantity: 1, Price: 100}},
	})
	require.True(t, shared.IsPartialFailure(err))
	// The order itself stays committed.
	require.NotZero(t, order.ID)
	_, getErr := svc.Get(context.Background(), order.ID)
	require.NoError(t, getErr)
}

func TestCheckoutValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, CheckoutInput{Items: []CheckoutItem{{ProductID: 1, Quantity: 1}}})
	require.True(t, shared.IsValidation(err))

	_, err = svc.Checkout(ctx, CheckoutInput{CustomerName: "X", Items: nil})
	require.True(t, shared.IsValidation(err))

	_, err = svc.Checkout(ctx, CheckoutInput{CustomerName: "X",
		Items: []CheckoutItem{{ProductID: 1, Quantity: 0, Price: 10}}})
	require.True(t, shared.IsValidation(err))

	_, err = svc.Checkout(ctx, CheckoutInput{CustomerName: "X", Discount: 1000,
		Items: []CheckoutItem{{ProductID: 1, Quantity: 1, Price: 10}}})
	require.True(t, shared.IsValidation(err))
}

func TestUpdateRecomputesFinalTotal(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	order, err := svc.Checkout(ctx, CheckoutInput{
		CustomerName: "Comptoir",
		Items:        []CheckoutItem{{ProductID: 1, Quantity: 2, Price: 1000}},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateInput{OrderID: order.ID, CustomerName: "Comptoir Sud", Discount: 300})
	require.NoError(t, err)
	require.InDelta(t, 1700, updated.FinalTotal, 0.01)
	require.InDelta(t, 1700, updated.RemainingAmount, 0.01)
}

func TestUpdateBlockedAfterPaymentOrDelivery(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	order, err := svc.Checkout(ctx, CheckoutInput{
		CustomerName: "Comptoir",
		Items:        []CheckoutItem{{ProductID: 1, Quantity: 1, Price: 1000}},
	})
	require.NoError(t, err)

	repo.payments[order.ID] = 1
	_, err = svc.Update(ctx, UpdateInput{OrderID: order.ID, CustomerName: "Autre", Discount: 0})
	require.True(t, shared.IsValidation(err))

	repo.payments[order.ID] = 0
	stored := repo.orders[order.ID]
	stored.DeliveryStatus = "partial"
	repo.orders[order.ID] = stored
	_, err = svc.Update(ctx, UpdateInput{OrderID: order.ID, CustomerName: "Autre", Discount: 0})
	require.True(t, shared.IsValidation(err))
}
