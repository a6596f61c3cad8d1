package settlement

import (
	"errors"
	"time"
)

// PaymentStatus enumerates order payment states.
type PaymentStatus string

const (
	// PaymentPending means nothing has been paid yet.
	PaymentPending PaymentStatus = "pending"
	// PaymentPartial means something between zero and the final total is paid.
	PaymentPartial PaymentStatus = "partial"
	// PaymentPaid means the remaining amount reached zero.
	PaymentPaid PaymentStatus = "paid"
)

// Payment is one row of the append-only order_payments ledger. Never edited
// or deleted; the cached totals on the order are derived from it.
type Payment struct {
	ID        int64
	OrderID   int64
	Amount    float64
	Method    string
	Notes     string
	CreatedAt time.Time
}

// OrderTotals is the settlement view of an order row. Only the fields this
// module is allowed to write, plus the concurrency token.
type OrderTotals struct {
	ID              int64
	FinalTotal      float64
	PaidAmount      float64
	RemainingAmount float64
	PaymentStatus   PaymentStatus
	Version         int64
}

// PaymentInput describes a payment to record against an order.
type PaymentInput struct {
	OrderID int64
	Amount  float64
	Method  string
	Notes   string
	ActorID int64
}

// PaymentResult is the new totals triple for the caller to merge into its
// in-memory view.
type PaymentResult struct {
	PaidAmount      float64       `json:"paid_amount"`
	RemainingAmount float64       `json:"remaining_amount"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
}

// StatusFor derives the payment status from the totals pair. Pure function,
// the single source of the status rule.
func StatusFor(paidAmount, finalTotal float64) PaymentStatus {
	switch {
	case finalTotal-paidAmount <= 0:
		return PaymentPaid
	case paidAmount > 0:
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// ErrConcurrentUpdate indicates the order row changed between read and write.
var ErrConcurrentUpdate = errors.New("settlement: order modified concurrently")
