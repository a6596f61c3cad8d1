package fulfillment

// DeliveryMode selects how a delivery submission is applied.
type DeliveryMode string

const (
	// ModeFullyDelivered marks every line fully delivered.
	ModeFullyDelivered DeliveryMode = "fully_delivered"
	// ModePartiallyDelivered applies explicit per-line quantities.
	ModePartiallyDelivered DeliveryMode = "partially_delivered"
	// ModeAwaiting flags the order as confirmed-but-not-shipped without
	// touching line data.
	ModeAwaiting DeliveryMode = "awaiting"
)

// OrderDeliveryStatus enumerates order-level delivery states.
type OrderDeliveryStatus string

const (
	OrderDeliveryPending   OrderDeliveryStatus = "pending"
	OrderDeliveryAwaiting  OrderDeliveryStatus = "awaiting"
	OrderDeliveryPartial   OrderDeliveryStatus = "partial"
	OrderDeliveryDelivered OrderDeliveryStatus = "delivered"
)

// ItemDeliveryStatus enumerates per-line delivery states.
type ItemDeliveryStatus string

const (
	ItemDeliveryPending   ItemDeliveryStatus = "pending"
	ItemDeliveryPartial   ItemDeliveryStatus = "partial"
	ItemDeliveryDelivered ItemDeliveryStatus = "delivered"
)

// OrderItemDelivery is the fulfillment view of an order line: only the
// fields this module reads and writes.
type OrderItemDelivery struct {
	ID                int64
	OrderID           int64
	ProductID         int64
	Quantity          float64
	DeliveredQuantity float64
	Status            ItemDeliveryStatus
}

// ItemUpdate carries an explicit delivered quantity for one line.
type ItemUpdate struct {
	ItemID   int64
	Quantity float64
}

// DeliveryInput describes a delivery submission.
type DeliveryInput struct {
	OrderID int64
	Mode    DeliveryMode
	Items   []ItemUpdate
	ActorID int64
}

// DeliveryResult reports the resulting order status and line states.
type DeliveryResult struct {
	OrderStatus OrderDeliveryStatus
	Items       []OrderItemDelivery
}

// ItemStatusFor derives the per-line status from delivered vs ordered.
func ItemStatusFor(delivered, quantity float64) ItemDeliveryStatus {
	switch {
	case delivered >= quantity && quantity > 0:
		return ItemDeliveryDelivered
	case delivered > 0:
		return ItemDeliveryPartial
	default:
		return ItemDeliveryPending
	}
}
