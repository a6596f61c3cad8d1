package purchasing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gvstock/gvstock/internal/inventory"
	"github.com/gvstock/gvstock/internal/shared"
)

type memoryRepo struct {
	receipts map[int64]Receipt
	nextID   int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{receipts: make(map[int64]Receipt)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]Receipt, len(r.receipts))
	for k, v := range r.receipts {
		snapshot[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.receipts = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, receiptID int64) (Receipt, error) {
	receipt, ok := r.receipts[receiptID]
	if !ok {
		return Receipt{}, shared.ErrNotFound
	}
	return receipt, nil
}

func (r *memoryRepo) List(ctx context.Context, limit int) ([]Receipt, error) {
	out := []Receipt{}
	for _, receipt := range r.receipts {
		out = append(out, receipt)
	}
	return out, nil
}

func (tx *memoryTx) InsertReceipt(ctx context.Context, receipt Receipt) (int64, error) {
	tx.repo.nextID++
	receipt.ID = tx.repo.nextID
	receipt.CreatedAt = time.Now().UTC()
	tx.repo.receipts[receipt.ID] = receipt
	return receipt.ID, nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, line ReceiptLine) (int64, error) {
	tx.repo.nextID++
	return tx.repo.nextID, nil
}

type stubLedger struct {
	ins []inventory.StockInInput
	err error
}

func (s *stubLedger) ApplyStockIn(ctx context.Context, input inventory.StockInInput) (inventory.MovementResult, error) {
	if s.err != nil {
		return inventory.MovementResult{}, s.err
	}
	s.ins = append(s.ins, input)
	return inventory.MovementResult{}, nil
}

func TestReceivePostsStockInPerLine(t *testing.T) {
	ledger := &stubLedger{}
	svc := NewService(newMemoryRepo(), ledger, nil, nil)

	receipt, err := svc.Receive(context.Background(), ReceiveInput{
		SupplierName: "SOGUIDIS",
		Reference:    "BL-2041",
		WarehouseID:  2,
		Lines: []ReceiveLine{
			{ProductID: 1, Quantity: 10, UnitCost: 1000},
			{ProductID: 2, Quantity: 4, UnitCost: 2500},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 20000, receipt.TotalCost, 0.01)
	require.Len(t, ledger.ins, 2)
	require.Equal(t, int64(2), ledger.ins[0].WarehouseID)
	require.Equal(t, "achat", ledger.ins[0].Reason)
	require.InDelta(t, 1000, ledger.ins[0].UnitPrice, 0.01)
	require.Contains(t, ledger.ins[0].Reference, "BL-2041")
}

func TestReceiveLedgerFailureIsPartial(t *testing.T) {
	repo := newMemoryRepo()
	ledger := &stubLedger{err: errors.New("ledger down")}
	svc := NewService(repo, ledger, nil, nil)

	receipt, err := svc.Receive(context.Background(), ReceiveInput{
		SupplierName: "SOGUIDIS",
		WarehouseID:  1,
		Lines:        []ReceiveLine{{ProductID: 1, Quantity: 5, UnitCost: 200}},
	})
	require.True(t, shared.IsPartialFailure(err))
	// The receipt stays recorded for replay.
	require.NotZero(t, receipt.ID)
	_, getErr := svc.Get(context.Background(), receipt.ID)
	require.NoError(t, getErr)
}

func TestReceiveValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubLedger{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{WarehouseID: 1, Lines: []ReceiveLine{{ProductID: 1, Quantity: 1}}})
	require.True(t, shared.IsValidation(err))

	_, err = svc.Receive(ctx, ReceiveInput{SupplierName: "X", Lines: []ReceiveLine{{ProductID: 1, Quantity: 1}}})
	require.True(t, shared.IsValidation(err))

	_, err = svc.Receive(ctx, ReceiveInput{SupplierName: "X", WarehouseID: 1})
	require.True(t, shared.IsValidation(err))

	_, err = svc.Receive(ctx, ReceiveInput{SupplierName: "X", WarehouseID: 1,
		Lines: []ReceiveLine{{ProductID: 1, Quantity: -2, UnitCost: 10}}})
	require.True(t, shared.IsValidation(err))
}
