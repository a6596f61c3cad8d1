package cashregister

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gvstock/gvstock/internal/shared"
)

type memoryRepo struct {
	registers map[int64]Register
	journal   []Transaction
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{registers: make(map[int64]Register)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[int64]Register, len(r.registers))
	for k, v := range r.registers {
		snapshot[k] = v
	}
	journalCount := len(r.journal)

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.registers = snapshot
		r.journal = r.journal[:journalCount]
		return err
	}
	return nil
}

func (r *memoryRepo) FindOpen(ctx context.Context) (Register, error) {
	for _, register := range r.registers {
		if register.Status == RegisterOpen {
			return register, nil
		}
	}
	return Register{}, shared.ErrNotFound
}

func (r *memoryRepo) ListTransactions(ctx context.Context, registerID int64, limit int) ([]Transaction, error) {
	out := []Transaction{}
	for _, txn := range r.journal {
		if txn.RegisterID == registerID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetRegisterForUpdate(ctx context.Context, registerID int64) (Register, error) {
	register, ok := tx.repo.registers[registerID]
	if !ok {
		return Register{}, shared.ErrNotFound
	}
	return register, nil
}

func (tx *memoryTx) FindOpenForUpdate(ctx context.Context) (Register, error) {
	return tx.repo.FindOpen(ctx)
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	tx.repo.nextID++
	txn.ID = tx.repo.nextID
	txn.CreatedAt = time.Now().UTC()
	tx.repo.journal = append(tx.repo.journal, txn)
	return txn.ID, nil
}

func (tx *memoryTx) AdjustAmount(ctx context.Context, registerID int64, delta float64) (float64, error) {
	register := tx.repo.registers[registerID]
	register.CurrentAmount += delta
	tx.repo.registers[registerID] = register
	return register.CurrentAmount, nil
}

func (tx *memoryTx) SetStatus(ctx context.Context, registerID int64, status RegisterStatus) error {
	register := tx.repo.registers[registerID]
	register.Status = status
	tx.repo.registers[registerID] = register
	return nil
}

func (tx *memoryTx) InsertRegister(ctx context.Context, name string, opening float64) (Register, error) {
	tx.repo.nextID++
	register := Register{
		ID:            tx.repo.nextID,
		Name:          name,
		CurrentAmount: opening,
		Status:        RegisterOpen,
		OpenedAt:      time.Now().UTC(),
	}
	tx.repo.registers[register.ID] = register
	return register, nil
}

func TestDepositAndWithdrawUpdateBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	register, err := svc.Open(ctx, "Caisse principale", 50000, 1)
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, register.ID, 30000, "encaissement commande 12", 1)
	require.NoError(t, err)
	require.InDelta(t, 80000, repo.registers[register.ID].CurrentAmount, 0.01)

	_, err = svc.Withdraw(ctx, register.ID, 20000, "monnaie", 1)
	require.NoError(t, err)
	require.InDelta(t, 60000, repo.registers[register.ID].CurrentAmount, 0.01)

	txns, err := svc.ListTransactions(ctx, register.ID, 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)
}

func TestWithdrawRejectedOnInsufficientFunds(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	register, err := svc.Open(ctx, "Caisse", 1000, 1)
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, register.ID, 5000, "", 1)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	// Failed withdrawal leaves no journal row and no balance change.
	require.Empty(t, repo.journal)
	require.InDelta(t, 1000, repo.registers[register.ID].CurrentAmount, 0.01)
}

func TestClosedRegisterRejectsMovements(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	register, err := svc.Open(ctx, "Caisse", 0, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, register.ID, 1))

	_, err = svc.Deposit(ctx, register.ID, 100, "", 1)
	require.True(t, shared.IsValidation(err))
}

func TestSettlementAdapterSkipsWhenNoOpenRegister(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	adapter := NewSettlementAdapter(svc, nil)
	ctx := context.Background()

	// No register open at all: skip silently.
	require.NoError(t, adapter.PostDeposit(ctx, 7, 5000))
	require.Empty(t, repo.journal)

	register, err := svc.Open(ctx, "Caisse", 0, 1)
	require.NoError(t, err)
	require.NoError(t, adapter.PostDeposit(ctx, 7, 5000))
	require.Len(t, repo.journal, 1)
	require.InDelta(t, 5000, repo.registers[register.ID].CurrentAmount, 0.01)
	require.Contains(t, repo.journal[0].Description, "commande 7")
}
