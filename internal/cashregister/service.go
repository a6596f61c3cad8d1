package cashregister

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gvstock/gvstock/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages registers and their journal. Every balance change is a
// journal append plus an atomic current_amount update in one transaction.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Open creates a new open register with an opening float.
func (s *Service) Open(ctx context.Context, name string, opening float64, actorID int64) (Register, error) {
	if name == "" {
		return Register{}, shared.NewValidationError("name", "name required")
	}
	if opening < 0 {
		return Register{}, shared.NewValidationError("opening_amount", "cannot be negative")
	}
	var register Register
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		register, err = tx.InsertRegister(ctx, name, opening)
		return err
	})
	if err != nil {
		return Register{}, err
	}
	s.record(ctx, actorID, "cashregister:open", register.ID, map[string]any{"opening": opening})
	return register, nil
}

// Close marks a register closed. Its journal stays queryable.
func (s *Service) Close(ctx context.Context, registerID, actorID int64) error {
	if registerID == 0 {
		return shared.NewValidationError("register_id", "register required")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		register, err := tx.GetRegisterForUpdate(ctx, registerID)
		if err != nil {
			return err
		}
		if register.Status == RegisterClosed {
			return shared.NewValidationError("register_id", "register already closed")
		}
		return tx.SetStatus(ctx, registerID, RegisterClosed)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "cashregister:close", registerID, nil)
	return nil
}

// Deposit adds money to a register.
func (s *Service) Deposit(ctx context.Context, registerID int64, amount float64, description string, actorID int64) (Transaction, error) {
	return s.post(ctx, registerID, TypeDeposit, amount, description, actorID)
}

// Withdraw removes money from a register, rejected when the balance would go
// negative.
func (s *Service) Withdraw(ctx context.Context, registerID int64, amount float64, description string, actorID int64) (Transaction, error) {
	return s.post(ctx, registerID, TypeWithdrawal, amount, description, actorID)
}

func (s *Service) post(ctx context.Context, registerID int64, txnType TransactionType, amount float64, description string, actorID int64) (Transaction, error) {
	if registerID == 0 {
		return Transaction{}, shared.NewValidationError("register_id", "register required")
	}
	if amount <= 0 {
		return Transaction{}, shared.NewValidationError("amount", "must be positive")
	}

	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		register, err := tx.GetRegisterForUpdate(ctx, registerID)
		if err != nil {
			return err
		}
		if register.Status != RegisterOpen {
			return shared.NewValidationError("register_id", "register is closed")
		}
		delta := amount
		if txnType == TypeWithdrawal {
			if register.CurrentAmount < amount {
				return ErrInsufficientFunds
			}
			delta = -amount
		}
		txn = Transaction{RegisterID: registerID, Type: txnType, Amount: amount, Description: description}
		id, err := tx.InsertTransaction(ctx, txn)
		if err != nil {
			return err
		}
		txn.ID = id
		_, err = tx.AdjustAmount(ctx, registerID, delta)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	txn.CreatedAt = time.Now().UTC()
	s.record(ctx, actorID, fmt.Sprintf("cashregister:%s", txnType), registerID,
		map[string]any{"amount": amount, "description": description})
	return txn, nil
}

// FindOpen returns the open register, ErrNoOpenRegister when none is.
func (s *Service) FindOpen(ctx context.Context) (Register, error) {
	register, err := s.repo.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Register{}, ErrNoOpenRegister
		}
		return Register{}, err
	}
	return register, nil
}

// ListTransactions lists a register's journal.
func (s *Service) ListTransactions(ctx context.Context, registerID int64, limit int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, registerID, limit)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, registerID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "cash_register",
		EntityID: fmt.Sprintf("%d", registerID),
		Meta:     meta,
		At:       time.Now().UTC(),
	})
}

// SettlementAdapter lets the settlement module post cash deposits without
// knowing about registers. No open register means the deposit is skipped;
// the payment integrity job reports the gap.
type SettlementAdapter struct {
	service *Service
	logger  *slog.Logger
}

// NewSettlementAdapter builds SettlementAdapter.
func NewSettlementAdapter(service *Service, logger *slog.Logger) *SettlementAdapter {
	return &SettlementAdapter{service: service, logger: logger}
}

// PostDeposit deposits a cash payment into the open register.
func (a *SettlementAdapter) PostDeposit(ctx context.Context, orderID int64, amount float64) error {
	register, err := a.service.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, ErrNoOpenRegister) {
			if a.logger != nil {
				a.logger.Info("no open register, cash deposit skipped", slog.Int64("order_id", orderID))
			}
			return nil
		}
		return err
	}
	_, err = a.service.Deposit(ctx, register.ID, amount,
		fmt.Sprintf("encaissement commande %d", orderID), 0)
	return err
}
