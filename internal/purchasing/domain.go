package purchasing

import "time"

// Receipt records one received supplier delivery.
type Receipt struct {
	ID           int64         `json:"id"`
	SupplierName string        `json:"supplier_name"`
	Reference    string        `json:"reference"`
	WarehouseID  int64         `json:"warehouse_id"`
	TotalCost    float64       `json:"total_cost"`
	CreatedAt    time.Time     `json:"created_at"`
	Lines        []ReceiptLine `json:"lines"`
}

// ReceiptLine is one received product line.
type ReceiptLine struct {
	ID        int64   `json:"id"`
	ReceiptID int64   `json:"receipt_id"`
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
}

// ReceiveInput describes a supplier delivery to receive.
type ReceiveInput struct {
	SupplierName string
	Reference    string
	WarehouseID  int64
	Lines        []ReceiveLine
	ActorID      int64
}

// ReceiveLine is one line of a receive submission.
type ReceiveLine struct {
	ProductID int64
	Quantity  float64
	UnitCost  float64
}
