package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gvstock/gvstock/internal/inventory"
	"github.com/gvstock/gvstock/internal/shared"
)

// StockLedgerPort posts checkout deductions to the inventory cost ledger.
type StockLedgerPort interface {
	ApplyStockOut(ctx context.Context, input inventory.StockOutInput) (inventory.MovementResult, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service creates and reads orders. Payment and delivery state transitions
// belong to the settlement and fulfillment modules.
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

// Checkout creates the order header and its lines in one transaction. When a
// warehouse is supplied, each line is deducted from stock through the cost
// ledger after commit; a deduction failure leaves the order in place and is
// reported as a partial failure.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Order, error) {
	if input.CustomerName == "" {
		return Order{}, shared.NewValidationError("customer_name", "customer required")
	}
	if len(input.Items) == 0 {
		return Order{}, shared.NewValidationError("items", "at least one line required")
	}
	if input.Discount < 0 {
		return Order{}, shared.NewValidationError("discount", "cannot be negative")
	}

	var total float64
	for i, item := range input.Items {
		if item.ProductID == 0 {
			return Order{}, shared.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "product required")
		}
		if item.Quantity <= 0 {
			return Order{}, shared.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if item.Price < 0 || item.Discount < 0 || item.Discount > item.Price {
			return Order{}, shared.NewValidationError(fmt.Sprintf("items[%d].price", i), "invalid price or discount")
		}
		total += LineTotal(item.Price, item.Discount, item.Quantity)
	}
	if input.Discount > total {
		return Order{}, shared.NewValidationError("discount", "exceeds order total")
	}

	order := Order{
		CustomerName:    input.CustomerName,
		WarehouseID:     input.WarehouseID,
		Total:           total,
		Discount:        input.Discount,
		FinalTotal:      total - input.Discount,
		RemainingAmount: total - input.Discount,
		PaymentStatus:   "pending",
		DeliveryStatus:  "pending",
		Version:         1,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		for _, line := range input.Items {
			item := OrderItem{
				OrderID:        id,
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				Price:          line.Price,
				Discount:       line.Discount,
				Total:          LineTotal(line.Price, line.Discount, line.Quantity),
				DeliveryStatus: "pending",
			}
			itemID, err := tx.InsertItem(ctx, item)
			if err != nil {
				return err
			}
			item.ID = itemID
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "orders:checkout",
			Entity:   "order",
			EntityID: fmt.Sprintf("%d", order.ID),
			Meta:     map[string]any{"final_total": order.FinalTotal, "lines": len(order.Items)},
			At:       time.Now().UTC(),
		})
	}

	if input.WarehouseID != 0 && s.ledger != nil {
		if err := s.deductStock(ctx, order); err != nil {
			return order, &shared.PartialFailureError{Step: "stock_deduction", Err: err}
		}
	}
	return order, nil
}

// deductStock posts one ledger exit per line. All lines are attempted so a
// single failing product does not leave the rest of the sale undeducted.
func (s *Service) deductStock(ctx context.Context, order Order) error {
	var firstErr error
	for _, item := range order.Items {
		_, err := s.ledger.ApplyStockOut(ctx, inventory.StockOutInput{
			WarehouseID: order.WarehouseID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Reason:      "vente",
			Reference:   fmt.Sprintf("order-%d", order.ID),
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Error("checkout stock deduction failed",
					slog.Int64("order_id", order.ID),
					slog.Int64("product_id", item.ProductID),
					slog.Any("error", err))
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Update edits the header of an order that has seen no payment and no
// delivery. Anything later must go through settlement or fulfillment.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Order, error) {
	if input.OrderID == 0 {
		return Order{}, shared.NewValidationError("order_id", "order required")
	}
	if input.CustomerName == "" {
		return Order{}, shared.NewValidationError("customer_name", "customer required")
	}
	if input.Discount < 0 {
		return Order{}, shared.NewValidationError("discount", "cannot be negative")
	}

	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		payments, err := tx.CountPayments(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.PaidAmount > 0 || payments > 0 {
			return shared.NewValidationError("order_id", "order already has payments")
		}
		if order.DeliveryStatus != "pending" {
			return shared.NewValidationError("order_id", "order already has deliveries")
		}
		if input.Discount > order.Total {
			return shared.NewValidationError("discount", "exceeds order total")
		}

		order.CustomerName = input.CustomerName
		order.Discount = input.Discount
		order.FinalTotal = order.Total - input.Discount
		order.RemainingAmount = order.FinalTotal
		if err := tx.UpdateHeader(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "orders:update",
			Entity:   "order",
			EntityID: fmt.Sprintf("%d", updated.ID),
			Meta:     map[string]any{"final_total": updated.FinalTotal},
			At:       time.Now().UTC(),
		})
	}
	return updated, nil
}

// Get loads one order with items.
func (s *Service) Get(ctx context.Context, orderID int64) (Order, error) {
	return s.repo.Get(ctx, orderID)
}

// List pages through orders.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error) {
	return s.repo.List(ctx, filter)
}
