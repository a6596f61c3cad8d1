package fulfillment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gvstock/gvstock/internal/shared"
)

type memoryRepo struct {
	orderStatus map[int64]OrderDeliveryStatus
	items       map[int64][]OrderItemDelivery
	statusOps   int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orderStatus: make(map[int64]OrderDeliveryStatus),
		items:       make(map[int64][]OrderItemDelivery),
	}
}

func (r *memoryRepo) addOrder(orderID int64, items ...OrderItemDelivery) {
	r.orderStatus[orderID] = OrderDeliveryPending
	for i := range items {
		items[i].OrderID = orderID
		if items[i].Status == "" {
			items[i].Status = ItemDeliveryPending
		}
	}
	r.items[orderID] = items
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshotStatus := make(map[int64]OrderDeliveryStatus, len(r.orderStatus))
	for k, v := range r.orderStatus {
		snapshotStatus[k] = v
	}
	snapshotItems := make(map[int64][]OrderItemDelivery, len(r.items))
	for k, v := range r.items {
		copied := make([]OrderItemDelivery, len(v))
		copy(copied, v)
		snapshotItems[k] = copied
	}

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.orderStatus = snapshotStatus
		r.items = snapshotItems
		return err
	}
	return nil
}

func (r *memoryRepo) GetItems(ctx context.Context, orderID int64) ([]OrderItemDelivery, error) {
	items := make([]OrderItemDelivery, len(r.items[orderID]))
	copy(items, r.items[orderID])
	return items, nil
}

func (tx *memoryTx) GetOrderDeliveryForUpdate(ctx context.Context, orderID int64) (OrderDeliveryStatus, error) {
	status, ok := tx.repo.orderStatus[orderID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return status, nil
}

func (tx *memoryTx) GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItemDelivery, error) {
	return tx.repo.GetItems(ctx, orderID)
}

func (tx *memoryTx) UpdateItemDelivery(ctx context.Context, itemID int64, delivered float64, status ItemDeliveryStatus) error {
	for orderID, items := range tx.repo.items {
		for i := range items {
			if items[i].ID == itemID {
				items[i].DeliveredQuantity = delivered
				items[i].Status = status
				tx.repo.items[orderID] = items
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

func (tx *memoryTx) SetOrderDeliveryStatus(ctx context.Context, orderID int64, status OrderDeliveryStatus) error {
	tx.repo.orderStatus[orderID] = status
	tx.repo.statusOps++
	return nil
}

func TestPartialThenFullDelivery(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(1, OrderItemDelivery{ID: 10, ProductID: 3, Quantity: 10})
	svc := NewService(repo, nil)
	ctx := context.Background()

	res, err := svc.RecordDelivery(ctx, DeliveryInput{
		OrderID: 1,
		Mode:    ModePartiallyDelivered,
		Items:   []ItemUpdate{{ItemID: 10, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, OrderDeliveryPartial, res.OrderStatus)
	require.InDelta(t, 4, res.Items[0].DeliveredQuantity, 0.0001)
	require.Equal(t, ItemDeliveryPartial, res.Items[0].Status)

	res, err = svc.RecordDelivery(ctx, DeliveryInput{
		OrderID: 1,
		Mode:    ModePartiallyDelivered,
		Items:   []ItemUpdate{{ItemID: 10, Quantity: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, OrderDeliveryDelivered, res.OrderStatus)
	require.Equal(t, ItemDeliveryDelivered, res.Items[0].Status)
}

func TestFullyDeliveredMarksEveryLine(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(1,
		OrderItemDelivery{ID: 10, ProductID: 3, Quantity: 10},
		OrderItemDelivery{ID: 11, ProductID: 4, Quantity: 2},
	)
	svc := NewService(repo, nil)

	res, err := svc.RecordDelivery(context.Background(), DeliveryInput{OrderID: 1, Mode: ModeFullyDelivered})
	require.NoError(t, err)
	require.Equal(t, OrderDeliveryDelivered, res.OrderStatus)
	for _, item := range res.Items {
		require.Equal(t, ItemDeliveryDelivered, item.Status)
		require.InDelta(t, item.Quantity, item.DeliveredQuantity, 0.0001)
	}
}

func TestAwaitingLeavesItemsAlone(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(1, OrderItemDelivery{ID: 10, ProductID: 3, Quantity: 5})
	svc := NewService(repo, nil)
	ctx := context.Background()

	res, err := svc.RecordDelivery(ctx, DeliveryInput{OrderID: 1, Mode: ModeAwaiting})
	require.NoError(t, err)
	require.Equal(t, OrderDeliveryAwaiting, res.OrderStatus)

	items, err := svc.GetItems(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 0, items[0].DeliveredQuantity, 0.0001)
	require.Equal(t, ItemDeliveryPending, items[0].Status)
}

func TestQuantitiesClampedNotRejected(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(1,
		OrderItemDelivery{ID: 10, ProductID: 3, Quantity: 10},
		OrderItemDelivery{ID: 11, ProductID: 4, Quantity: 6},
	)
	svc := NewService(repo, nil)

	res, err := svc.RecordDelivery(context.Background(), DeliveryInput{
		OrderID: 1,
		Mode:    ModePartiallyDelivered,
		Items: []ItemUpdate{
			{ItemID: 10, Quantity: 25},
			{ItemID: 11, Quantity: -3},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 10, res.Items[0].DeliveredQuantity, 0.0001)
	require.Equal(t, ItemDeliveryDelivered, res.Items[0].Status)
	require.InDelta(t, 0, res.Items[1].DeliveredQuantity, 0.0001)
	require.Equal(t, ItemDeliveryPending, res.Items[1].Status)
	require.Equal(t, OrderDeliveryPartial, res.OrderStatus)
}

func TestUnlistedLinesAreUntouched(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(1,
		OrderItemDelivery{ID: 10, ProductID: 3, Quantity: 10},
		OrderItemDelivery{ID: 11, ProductID: 4, Quantity: 6},
	)
	svc := NewService(repo, nil)

	res, err := svc.RecordDelivery(context.Background(), DeliveryInput{
		OrderID: 1,
		Mode:    ModePartiallyDelivered,
		Items:   []ItemUpdate{{ItemID: 10, Quantity: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, ItemDeliveryDelivered, res.Items[0].Status)
	require.Equal(t, ItemDeliveryPending, res.Items[1].Status)
	require.Equal(t, OrderDeliveryPartial, res.OrderStatus)
}

func TestNothingDeliveredKeepsCurrentStatus(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(1, OrderItemDelivery{ID: 10, ProductID: 3, Quantity: 10})
	repo.orderStatus[1] = OrderDeliveryAwaiting
	svc := NewService(repo, nil)

	res, err := svc.RecordDelivery(context.Background(), DeliveryInput{
		OrderID: 1,
		Mode:    ModePartiallyDelivered,
		Items:   []ItemUpdate{{ItemID: 10, Quantity: 0}},
	})
	require.NoError(t, err)
	require.Equal(t, OrderDeliveryAwaiting, res.OrderStatus)
	// No redundant status write when nothing changed.
	require.Equal(t, 0, repo.statusOps)
}

func TestDeliveryValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(1, OrderItemDelivery{ID: 10, ProductID: 3, Quantity: 10})
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordDelivery(ctx, DeliveryInput{OrderID: 0, Mode: ModeFullyDelivered})
	require.True(t, shared.IsValidation(err))

	_, err = svc.RecordDelivery(ctx, DeliveryInput{OrderID: 1, Mode: "shipped"})
	require.True(t, shared.IsValidation(err))

	_, err = svc.RecordDelivery(ctx, DeliveryInput{OrderID: 1, Mode: ModePartiallyDelivered})
	require.True(t, shared.IsValidation(err))

	_, err = svc.RecordDelivery(ctx, DeliveryInput{OrderID: 99, Mode: ModeFullyDelivered})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
