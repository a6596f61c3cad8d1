package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/gvstock/gvstock/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records delivered quantities against order lines. It owns the
// delivery state machine and never reads or writes payment fields; payment
// and delivery are orthogonal state machines sharing only the order row.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// RecordDelivery applies a delivery submission.
//
// Per-line quantities are clamped into [0, ordered] rather than rejected, so
// one bad line never blocks delivery of the rest of the order.
func (s *Service) RecordDelivery(ctx context.Context, input DeliveryInput) (DeliveryResult, error) {
	if input.OrderID == 0 {
		return DeliveryResult{}, shared.NewValidationError("order_id", "order required")
	}
	switch input.Mode {
	case ModeFullyDelivered, ModePartiallyDelivered, ModeAwaiting:
	default:
		return DeliveryResult{}, shared.NewValidationError("delivery_mode", fmt.Sprintf("unknown mode %q", input.Mode))
	}
	if input.Mode == ModePartiallyDelivered && len(input.Items) == 0 {
		return DeliveryResult{}, shared.NewValidationError("items", "itemised delivery requires at least one line")
	}

	var result DeliveryResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		currentStatus, err := tx.GetOrderDeliveryForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}

		switch input.Mode {
		case ModeAwaiting:
			// Distinct business state: pickup confirmed, nothing shipped.
			// Item rows are intentionally left alone.
			if err := tx.SetOrderDeliveryStatus(ctx, input.OrderID, OrderDeliveryAwaiting); err != nil {
				return err
			}
			result = DeliveryResult{OrderStatus: OrderDeliveryAwaiting}
			return nil

		case ModeFullyDelivered:
			items, err := tx.GetItemsForUpdate(ctx, input.OrderID)
			if err != nil {
				return err
			}
			for i := range items {
				items[i].DeliveredQuantity = items[i].Quantity
				items[i].Status = ItemDeliveryDelivered
				if err := tx.UpdateItemDelivery(ctx, items[i].ID, items[i].DeliveredQuantity, items[i].Status); err != nil {
					return err
				}
			}
			if err := tx.SetOrderDeliveryStatus(ctx, input.OrderID, OrderDeliveryDelivered); err != nil {
				return err
			}
			result = DeliveryResult{OrderStatus: OrderDeliveryDelivered, Items: items}
			return nil

		default: // ModePartiallyDelivered
			items, err := tx.GetItemsForUpdate(ctx, input.OrderID)
			if err != nil {
				return err
			}
			updates := make(map[int64]float64, len(input.Items))
			for _, u := range input.Items {
				updates[u.ItemID] = u.Quantity
			}
			for i := range items {
				qty, ok := updates[items[i].ID]
				if !ok {
					continue
				}
				// Clamp, never abort: a single bad line must not block the batch.
				if qty < 0 {
					qty = 0
				}
				if qty > items[i].Quantity {
					qty = items[i].Quantity
				}
				items[i].DeliveredQuantity = qty
				items[i].Status = ItemStatusFor(qty, items[i].Quantity)
				if err := tx.UpdateItemDelivery(ctx, items[i].ID, qty, items[i].Status); err != nil {
					return err
				}
			}

			orderStatus := deriveOrderStatus(items, currentStatus)
			if orderStatus != currentStatus {
				if err := tx.SetOrderDeliveryStatus(ctx, input.OrderID, orderStatus); err != nil {
					return err
				}
			}
			result = DeliveryResult{OrderStatus: orderStatus, Items: items}
			return nil
		}
	})
	if err != nil {
		return DeliveryResult{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("fulfillment:%s", input.Mode),
			Entity:   "order",
			EntityID: fmt.Sprintf("%d", input.OrderID),
			Meta:     map[string]any{"status": string(result.OrderStatus)},
			At:       time.Now().UTC(),
		})
	}
	return result, nil
}

// GetItems lists the fulfillment view of an order's lines.
func (s *Service) GetItems(ctx context.Context, orderID int64) ([]OrderItemDelivery, error) {
	return s.repo.GetItems(ctx, orderID)
}

// deriveOrderStatus promotes the order to delivered when every line ended
// fully delivered, reports partial when anything shipped, and keeps the
// caller-supplied status when nothing has.
func deriveOrderStatus(items []OrderItemDelivery, current OrderDeliveryStatus) OrderDeliveryStatus {
	if len(items) == 0 {
		return current
	}
	allDelivered := true
	anyDelivered := false
	for _, item := range items {
		if item.DeliveredQuantity > 0 {
			anyDelivered = true
		}
		if item.Status != ItemDeliveryDelivered {
			allDelivered = false
		}
	}
	switch {
	case allDelivered:
		return OrderDeliveryDelivered
	case anyDelivered:
		return OrderDeliveryPartial
	default:
		return current
	}
}
