package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gvstock/gvstock/internal/shared"
)

// CashRegisterPort posts a deposit for a cash-settled payment. The
// implementation resolves the open register; when none is open the deposit is
// skipped without error.
type CashRegisterPort interface {
	PostDeposit(ctx context.Context, orderID int64, amount float64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts recorded payments.
type MetricsPort interface {
	CountPayment(method string)
}

// MethodCash is the payment method that feeds the cash register journal.
const MethodCash = "cash"

// Service records payments against orders. Settlement is monotonic: paid
// amounts only grow, a paid order is never reopened.
type Service struct {
	repo     RepositoryPort
	register CashRegisterPort
	audit    AuditPort
	metrics  MetricsPort
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, register CashRegisterPort, audit AuditPort, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, register: register, audit: audit, metrics: metrics, logger: logger}
}

// RecordPayment appends a payment to the ledger and applies the new totals
// to the order in the same transaction. The ledger insert comes first: it is
// the append-only, authoritative write.
//
// The cash-register deposit runs after commit. When it fails the payment
// stays recorded and the error is a PartialFailureError so the caller can
// tell "recorded but not fully applied" apart from a rejected payment.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (PaymentResult, error) {
	if input.OrderID == 0 {
		return PaymentResult{}, shared.NewValidationError("order_id", "order required")
	}
	if input.Amount <= 0 {
		return PaymentResult{}, shared.NewValidationError("amount", "must be positive")
	}
	if input.Method == "" {
		return PaymentResult{}, shared.NewValidationError("payment_method", "method required")
	}

	var result PaymentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		totals, err := tx.GetOrderTotalsForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if totals.RemainingAmount <= 0 {
			return shared.NewValidationError("order_id", "order already settled")
		}
		if input.Amount > totals.RemainingAmount+1e-9 {
			return shared.NewValidationError("amount",
				fmt.Sprintf("exceeds remaining amount %s", shared.FormatGNF(totals.RemainingAmount)))
		}

		if _, err := tx.InsertPayment(ctx, Payment{
			OrderID: input.OrderID,
			Amount:  input.Amount,
			Method:  input.Method,
			Notes:   input.Notes,
		}); err != nil {
			return err
		}

		result, err = tx.ApplySettlement(ctx, input.OrderID, input.Amount, totals.Version)
		return err
	})
	if err != nil {
		return PaymentResult{}, err
	}

	if s.metrics != nil {
		s.metrics.CountPayment(input.Method)
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "settlement:payment",
			Entity:   "order",
			EntityID: fmt.Sprintf("%d", input.OrderID),
			Meta: map[string]any{
				"amount": input.Amount,
				"method": input.Method,
				"status": string(result.PaymentStatus),
			},
			At: time.Now().UTC(),
		})
	}

	if input.Method == MethodCash && s.register != nil {
		if err := s.register.PostDeposit(ctx, input.OrderID, input.Amount); err != nil {
			if s.logger != nil {
				s.logger.Error("cash register deposit failed after payment commit",
					slog.Int64("order_id", input.OrderID),
					slog.Float64("amount", input.Amount),
					slog.Any("error", err))
			}
			return result, &shared.PartialFailureError{Step: "cash_register_deposit", Err: err}
		}
	}

	return result, nil
}

// GetOrderTotals returns the settlement view of an order.
func (s *Service) GetOrderTotals(ctx context.Context, orderID int64) (OrderTotals, error) {
	return s.repo.GetOrderTotals(ctx, orderID)
}

// ListPayments returns the payment ledger for an order.
func (s *Service) ListPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	return s.repo.ListPayments(ctx, orderID)
}
