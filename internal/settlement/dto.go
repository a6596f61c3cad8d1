package settlement

import (
	"time"

	"github.com/gvstock/gvstock/internal/fulfillment"
)

// PaymentRequest records one payment against an order.
type PaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"payment_method" validate:"required,oneof=cash mobile_money bank_transfer cheque"`
	Notes  string  `json:"notes" validate:"omitempty,max=500"`
}

// SettleItemUpdate is one explicit delivered quantity in a settle request.
type SettleItemUpdate struct {
	ItemID   int64   `json:"item_id" validate:"required,gt=0"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

// SettleRequestBody is the combined payment-and-delivery submission.
type SettleRequestBody struct {
	Amount       float64            `json:"amount" validate:"gte=0"`
	Method       string             `json:"payment_method" validate:"omitempty,oneof=cash mobile_money bank_transfer cheque"`
	Notes        string             `json:"notes" validate:"omitempty,max=500"`
	DeliveryMode string             `json:"delivery_mode" validate:"omitempty,oneof=fully_delivered partially_delivered awaiting"`
	Items        []SettleItemUpdate `json:"items" validate:"omitempty,dive"`
	PaymentOnly  bool               `json:"payment_only"`
	DeliveryOnly bool               `json:"delivery_only"`
}

// PaymentResponse is one ledger row.
type PaymentResponse struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"payment_method"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newPaymentResponse(p Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Method:    p.Method,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
}

// TotalsResponse is the settlement view of an order.
type TotalsResponse struct {
	OrderID         int64   `json:"order_id"`
	FinalTotal      float64 `json:"final_total"`
	PaidAmount      float64 `json:"paid_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	PaymentStatus   string  `json:"payment_status"`
}

// SettleItemResponse mirrors one order line's delivery state.
type SettleItemResponse struct {
	ItemID            int64   `json:"item_id"`
	ProductID         int64   `json:"product_id"`
	Quantity          float64 `json:"quantity"`
	DeliveredQuantity float64 `json:"delivered_quantity"`
	Status            string  `json:"delivery_status"`
}

// SettlePaymentOutcome is the payment half of a settle response.
type SettlePaymentOutcome struct {
	Ran    bool           `json:"ran"`
	Result *PaymentResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// SettleDeliveryOutcome is the delivery half of a settle response.
type SettleDeliveryOutcome struct {
	Ran         bool                 `json:"ran"`
	OrderStatus string               `json:"order_status,omitempty"`
	Items       []SettleItemResponse `json:"items,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// SettleResponse surfaces both sub-operation outcomes independently.
type SettleResponse struct {
	OrderID  int64                 `json:"order_id"`
	NoOp     bool                  `json:"no_op"`
	Payment  SettlePaymentOutcome  `json:"payment"`
	Delivery SettleDeliveryOutcome `json:"delivery"`
}

func newSettleResponse(o Outcome) SettleResponse {
	resp := SettleResponse{
		OrderID: o.OrderID,
		NoOp:    o.NoOp(),
		Payment: SettlePaymentOutcome{Ran: o.PaymentRan, Result: o.Payment},
		Delivery: SettleDeliveryOutcome{
			Ran: o.DeliveryRan,
		},
	}
	if o.PaymentErr != nil {
		resp.Payment.Error = o.PaymentErr.Error()
	}
	if o.Delivery != nil {
		resp.Delivery.OrderStatus = string(o.Delivery.OrderStatus)
		resp.Delivery.Items = newSettleItems(o.Delivery.Items)
	}
	if o.DeliveryErr != nil {
		resp.Delivery.Error = o.DeliveryErr.Error()
	}
	return resp
}

func newSettleItems(items []fulfillment.OrderItemDelivery) []SettleItemResponse {
	out := make([]SettleItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, SettleItemResponse{
			ItemID:            item.ID,
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			DeliveredQuantity: item.DeliveredQuantity,
			Status:            string(item.Status),
		})
	}
	return out
}
