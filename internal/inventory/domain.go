package inventory

import (
	"time"
)

// MovementType enumerates stock movement directions.
type MovementType string

const (
	// MovementIn represents an inbound movement (purchase receipt, return).
	MovementIn MovementType = "in"
	// MovementOut represents an outbound movement (sale, loss).
	MovementOut MovementType = "out"
)

// StockMovement is one row of the append-only movement log. Immutable once
// written; the log is the authoritative record the mirrors derive from.
type StockMovement struct {
	ID          int64
	WarehouseID int64
	ProductID   int64
	Quantity    float64
	UnitPrice   float64
	TotalValue  float64
	Type        MovementType
	Reason      string
	Reference   string
	CreatedAt   time.Time
}

// WarehouseStock holds the per-warehouse, per-product aggregate. UnitPrice is
// the value-weighted average of all contributing inbound movements.
type WarehouseStock struct {
	ID          int64
	WarehouseID int64
	ProductID   int64
	Quantity    float64
	UnitPrice   float64
	TotalValue  float64
	UpdatedAt   time.Time
}

// PrincipalStock mirrors WarehouseStock in the legacy stock_principal table,
// keyed by product and warehouse names instead of ids. Kept for a legacy
// reporting view.
type PrincipalStock struct {
	ID              int64
	Article         string
	Entrepot        string
	Quantite        float64
	PrixUnitaire    float64
	ValeurTotale    float64
	CategorieAction string
	UpdatedAt       time.Time
}

// StockInInput describes an inbound posting.
type StockInInput struct {
	WarehouseID int64
	ProductID   int64
	Quantity    float64
	UnitPrice   float64
	Reason      string
	Reference   string
	ActorID     int64
}

// StockOutInput describes an outbound posting. The exit is valued at the
// stock's current average unit price, never at a caller-supplied price.
type StockOutInput struct {
	WarehouseID int64
	ProductID   int64
	Quantity    float64
	Reason      string
	Reference   string
	ActorID     int64
}

// MovementResult reports the written movement and the resulting aggregate.
type MovementResult struct {
	Movement StockMovement
	Stock    WarehouseStock
}

// MovementFilter filters movement log listings.
type MovementFilter struct {
	WarehouseID int64
	ProductID   int64
	Type        MovementType
	From        time.Time
	To          time.Time
	Limit       int
}
