package settlement

import (
	"context"
	"log/slog"

	"github.com/gvstock/gvstock/internal/fulfillment"
)

// PaymentPort is the payment sub-operation the coordinator drives.
type PaymentPort interface {
	RecordPayment(ctx context.Context, input PaymentInput) (PaymentResult, error)
}

// DeliveryPort is the delivery sub-operation the coordinator drives.
type DeliveryPort interface {
	RecordDelivery(ctx context.Context, input fulfillment.DeliveryInput) (fulfillment.DeliveryResult, error)
}

// SettleRequest is a single user submission that may carry a payment, a
// delivery instruction, or both. The mode flags come from the calling
// context (payment dialog vs delivery dialog vs combined form).
type SettleRequest struct {
	OrderID      int64
	Amount       float64
	Method       string
	Notes        string
	DeliveryMode fulfillment.DeliveryMode
	ItemUpdates  []fulfillment.ItemUpdate
	PaymentOnly  bool
	DeliveryOnly bool
	ActorID      int64
}

// Outcome aggregates the independent results of the two sub-operations.
// A failure in one never suppresses the outcome of the other.
type Outcome struct {
	OrderID     int64
	PaymentRan  bool
	Payment     *PaymentResult
	PaymentErr  error
	DeliveryRan bool
	Delivery    *fulfillment.DeliveryResult
	DeliveryErr error
}

// NoOp reports that nothing was requested. A no-op is not an error.
func (o Outcome) NoOp() bool {
	return !o.PaymentRan && !o.DeliveryRan
}

// Succeeded reports that every sub-operation that ran completed fully.
func (o Outcome) Succeeded() bool {
	return o.PaymentErr == nil && o.DeliveryErr == nil
}

// Coordinator turns one user submission into the right sub-operations.
type Coordinator struct {
	payments   PaymentPort
	deliveries DeliveryPort
	logger     *slog.Logger
}

// NewCoordinator builds Coordinator.
func NewCoordinator(payments PaymentPort, deliveries DeliveryPort, logger *slog.Logger) *Coordinator {
	return &Coordinator{payments: payments, deliveries: deliveries, logger: logger}
}

// Settle runs the payment sub-operation unless the submission is
// delivery-only and an amount is present, and the delivery sub-operation
// unless the submission is payment-only and a mode is present. Both run even
// when the first fails; the caller gets both outcomes.
func (c *Coordinator) Settle(ctx context.Context, req SettleRequest) Outcome {
	outcome := Outcome{OrderID: req.OrderID}

	if !req.DeliveryOnly && req.Amount > 0 {
		outcome.PaymentRan = true
		result, err := c.payments.RecordPayment(ctx, PaymentInput{
			OrderID: req.OrderID,
			Amount:  req.Amount,
			Method:  req.Method,
			Notes:   req.Notes,
			ActorID: req.ActorID,
		})
		if err != nil {
			outcome.PaymentErr = err
			c.logger.Warn("settlement: payment sub-operation failed",
				slog.Int64("order_id", req.OrderID), slog.Any("error", err))
		}
		// A partial failure still carries the committed totals.
		if err == nil || result != (PaymentResult{}) {
			outcome.Payment = &result
		}
	}

	if !req.PaymentOnly && req.DeliveryMode != "" {
		outcome.DeliveryRan = true
		result, err := c.deliveries.RecordDelivery(ctx, fulfillment.DeliveryInput{
			OrderID: req.OrderID,
			Mode:    req.DeliveryMode,
			Items:   req.ItemUpdates,
			ActorID: req.ActorID,
		})
		if err != nil {
			outcome.DeliveryErr = err
			c.logger.Warn("settlement: delivery sub-operation failed",
				slog.Int64("order_id", req.OrderID), slog.Any("error", err))
		} else {
			outcome.Delivery = &result
		}
	}

	if outcome.NoOp() {
		c.logger.Info("settlement: nothing to do", slog.Int64("order_id", req.OrderID))
	}
	return outcome
}
