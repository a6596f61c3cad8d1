package inventory

// StockInRequest is the payload for posting an inbound movement.
type StockInRequest struct {
	WarehouseID int64   `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64   `json:"product_id" validate:"required,gt=0"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Reason      string  `json:"reason" validate:"max=255"`
	Reference   string  `json:"reference,omitempty" validate:"omitempty,uuid4"`
}

// StockOutRequest is the payload for posting an outbound movement.
type StockOutRequest struct {
	WarehouseID int64   `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64   `json:"product_id" validate:"required,gt=0"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	Reason      string  `json:"reason" validate:"max=255"`
	Reference   string  `json:"reference,omitempty" validate:"omitempty,uuid4"`
}

// StockResponse renders a warehouse stock aggregate.
type StockResponse struct {
	WarehouseID int64   `json:"warehouse_id"`
	ProductID   int64   `json:"product_id"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalValue  float64 `json:"total_value"`
}

// MovementResponse renders a posted movement and the resulting aggregate.
type MovementResponse struct {
	MovementID int64         `json:"movement_id"`
	Reference  string        `json:"reference"`
	Type       MovementType  `json:"type"`
	Stock      StockResponse `json:"stock"`
}

func newMovementResponse(res MovementResult) MovementResponse {
	return MovementResponse{
		MovementID: res.Movement.ID,
		Reference:  res.Movement.Reference,
		Type:       res.Movement.Type,
		Stock: StockResponse{
			WarehouseID: res.Stock.WarehouseID,
			ProductID:   res.Stock.ProductID,
			Quantity:    res.Stock.Quantity,
			UnitPrice:   res.Stock.UnitPrice,
			TotalValue:  res.Stock.TotalValue,
		},
	}
}
