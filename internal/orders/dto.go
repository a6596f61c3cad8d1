package orders

import (
	"time"

	"github.com/gvstock/gvstock/internal/shared"
)

// CheckoutItemRequest is one line in a checkout payload.
type CheckoutItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
	Discount  float64 `json:"discount" validate:"gte=0"`
}

// CheckoutRequest creates an order.
type CheckoutRequest struct {
	CustomerName string                `json:"customer_name" validate:"required,min=2,max=120"`
	WarehouseID  int64                 `json:"warehouse_id" validate:"gte=0"`
	Discount     float64               `json:"discount" validate:"gte=0"`
	Items        []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateRequest edits an order header.
type UpdateRequest struct {
	CustomerName string  `json:"customer_name" validate:"required,min=2,max=120"`
	Discount     float64 `json:"discount" validate:"gte=0"`
}

// ItemResponse is one order line.
type ItemResponse struct {
	ID                int64   `json:"id"`
	ProductID         int64   `json:"product_id"`
	Quantity          float64 `json:"quantity"`
	Price             float64 `json:"price"`
	Discount          float64 `json:"discount"`
	Total             float64 `json:"total"`
	DeliveredQuantity float64 `json:"delivered_quantity"`
	DeliveryStatus    string  `json:"delivery_status"`
}

// OrderResponse is the API view of an order.
type OrderResponse struct {
	ID              int64          `json:"id"`
	CustomerName    string         `json:"customer_name"`
	WarehouseID     int64          `json:"warehouse_id,omitempty"`
	Total           float64        `json:"total"`
	Discount        float64        `json:"discount"`
	FinalTotal      float64        `json:"final_total"`
	FinalTotalText  string         `json:"final_total_text"`
	PaidAmount      float64        `json:"paid_amount"`
	RemainingAmount float64        `json:"remaining_amount"`
	PaymentStatus   string         `json:"payment_status"`
	DeliveryStatus  string         `json:"delivery_status"`
	CreatedAt       time.Time      `json:"created_at"`
	Items           []ItemResponse `json:"items,omitempty"`
}

// ListResponse pages orders.
type ListResponse struct {
	Orders     []OrderResponse   `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

func newOrderResponse(o Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		WarehouseID:     o.WarehouseID,
		Total:           o.Total,
		Discount:        o.Discount,
		FinalTotal:      o.FinalTotal,
		FinalTotalText:  shared.FormatGNF(o.FinalTotal),
		PaidAmount:      o.PaidAmount,
		RemainingAmount: o.RemainingAmount,
		PaymentStatus:   o.PaymentStatus,
		DeliveryStatus:  o.DeliveryStatus,
		CreatedAt:       o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ID:                item.ID,
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			Price:             item.Price,
			Discount:          item.Discount,
			Total:             item.Total,
			DeliveredQuantity: item.DeliveredQuantity,
			DeliveryStatus:    item.DeliveryStatus,
		})
	}
	return resp
}
