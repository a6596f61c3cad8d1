package purchasing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gvstock/gvstock/internal/inventory"
	"github.com/gvstock/gvstock/internal/shared"
)

// StockLedgerPort posts received quantities into the inventory cost ledger.
type StockLedgerPort interface {
	ApplyStockIn(ctx context.Context, input inventory.StockInInput) (inventory.MovementResult, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service receives supplier deliveries. Each received line becomes a ledger
// entry at the purchase unit cost, which is what moves the weighted average.
type Service struct {
	repo   RepositoryPort
	ledger StockLedgerPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, ledger StockLedgerPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, ledger: ledger, audit: audit, logger: logger}
}

// Receive records the receipt, then posts one stock-in per line. A ledger
// failure after the receipt committed is a partial failure; the receipt
// reference lets the drifted lines be replayed.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (Receipt, error) {
	if input.SupplierName == "" {
		return Receipt{}, shared.NewValidationError("supplier_name", "supplier required")
	}
	if input.WarehouseID == 0 {
		return Receipt{}, shared.NewValidationError("warehouse_id", "warehouse required")
	}
	if len(input.Lines) == 0 {
		return Receipt{}, shared.NewValidationError("lines", "at least one line required")
	}
	for i, line := range input.Lines {
		if line.ProductID == 0 {
			return Receipt{}, shared.NewValidationError(fmt.Sprintf("lines[%d].product_id", i), "product required")
		}
		if line.Quantity <= 0 {
			return Receipt{}, shared.NewValidationError(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}
		if line.UnitCost < 0 {
			return Receipt{}, shared.NewValidationError(fmt.Sprintf("lines[%d].unit_cost", i), "cannot be negative")
		}
	}

	reference := input.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	receipt := Receipt{
		SupplierName: input.SupplierName,
		Reference:    reference,
		WarehouseID:  input.WarehouseID,
	}
	for _, line := range input.Lines {
		receipt.TotalCost += line.Quantity * line.UnitCost
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		receipt.ID = id
		for _, line := range input.Lines {
			receiptLine := ReceiptLine{
				ReceiptID: id,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitCost:  line.UnitCost,
			}
			lineID, err := tx.InsertLine(ctx, receiptLine)
			if err != nil {
				return err
			}
			receiptLine.ID = lineID
			receipt.Lines = append(receipt.Lines, receiptLine)
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "purchasing:receive",
			Entity:   "purchase_receipt",
			EntityID: fmt.Sprintf("%d", receipt.ID),
			Meta:     map[string]any{"supplier": input.SupplierName, "reference": reference, "lines": len(receipt.Lines)},
			At:       time.Now().UTC(),
		})
	}

	if err := s.postStockIns(ctx, receipt); err != nil {
		return receipt, &shared.PartialFailureError{Step: "stock_in", Err: err}
	}
	return receipt, nil
}

func (s *Service) postStockIns(ctx context.Context, receipt Receipt) error {
	var firstErr error
	for _, line := range receipt.Lines {
		_, err := s.ledger.ApplyStockIn(ctx, inventory.StockInInput{
			WarehouseID: receipt.WarehouseID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitCost,
			Reason:      "achat",
			Reference:   fmt.Sprintf("%s-%d", receipt.Reference, line.ID),
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Error("receipt stock-in failed",
					slog.Int64("receipt_id", receipt.ID),
					slog.Int64("product_id", line.ProductID),
					slog.Any("error", err))
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Get loads one receipt.
func (s *Service) Get(ctx context.Context, receiptID int64) (Receipt, error) {
	return s.repo.Get(ctx, receiptID)
}

// List lists recent receipts.
func (s *Service) List(ctx context.Context, limit int) ([]Receipt, error) {
	return s.repo.List(ctx, limit)
}
