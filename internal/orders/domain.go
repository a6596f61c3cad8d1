package orders

import "time"

// Order is the order header. Payment and delivery fields are caches owned by
// the settlement and fulfillment modules; this module only seeds them at
// checkout and never rewrites them afterwards.
type Order struct {
	ID              int64
	CustomerName    string
	WarehouseID     int64
	Total           float64
	Discount        float64
	FinalTotal      float64
	PaidAmount      float64
	RemainingAmount float64
	PaymentStatus   string
	DeliveryStatus  string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []OrderItem
}

// OrderItem is one order line.
type OrderItem struct {
	ID                int64
	OrderID           int64
	ProductID         int64
	Quantity          float64
	Price             float64
	Discount          float64
	Total             float64
	DeliveredQuantity float64
	DeliveryStatus    string
}

// CheckoutItem is one line of a checkout submission.
type CheckoutItem struct {
	ProductID int64
	Quantity  float64
	Price     float64
	Discount  float64
}

// CheckoutInput describes a new order. WarehouseID zero means the sale does
// not deduct stock at checkout.
type CheckoutInput struct {
	CustomerName string
	WarehouseID  int64
	Discount     float64
	Items        []CheckoutItem
	ActorID      int64
}

// UpdateInput edits the header of an untouched order.
type UpdateInput struct {
	OrderID      int64
	CustomerName string
	Discount     float64
	ActorID      int64
}

// ListFilter narrows order listings.
type ListFilter struct {
	PaymentStatus  string
	DeliveryStatus string
	Page           int
	PerPage        int
}

// LineTotal computes one line's total: unit discount applies per unit.
func LineTotal(price, discount, quantity float64) float64 {
	return (price - discount) * quantity
}
