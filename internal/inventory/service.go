package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gvstock/gvstock/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates cached product reads after a movement.
type CachePort interface {
	InvalidateProduct(ctx context.Context, productID int64) error
}

// MetricsPort counts posted movements.
type MetricsPort interface {
	CountMovement(movementType string)
}

// Service applies stock movements and keeps the three stock aggregates
// (warehouse stock, catalog mirror, legacy principal mirror) in step.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cache       CachePort
	metrics     MetricsPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, cache CachePort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, cache: cache, metrics: metrics}
}

// ApplyStockIn posts an inbound movement and recomputes the weighted-average
// unit price: newValue = oldQty*oldPrice + qty*unitPrice, newPrice =
// newValue/newQty.
func (s *Service) ApplyStockIn(ctx context.Context, input StockInInput) (MovementResult, error) {
	if input.WarehouseID == 0 || input.ProductID == 0 {
		return MovementResult{}, shared.NewValidationError("warehouse_id/product_id", "warehouse and product required")
	}
	if input.Quantity <= 0 {
		return MovementResult{}, shared.NewValidationError("quantity", "must be positive")
	}
	if input.UnitPrice < 0 {
		return MovementResult{}, shared.NewValidationError("unit_price", "must be >= 0")
	}
	reference := input.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	key := fmt.Sprintf("in:%s:%d:%d", reference, input.WarehouseID, input.ProductID)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return MovementResult{}, err
		}
		insertedKey = true
	}

	var result MovementResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stock, err := tx.GetStockForUpdate(ctx, input.WarehouseID, input.ProductID)
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}

		movement := StockMovement{
			WarehouseID: input.WarehouseID,
			ProductID:   input.ProductID,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			TotalValue:  input.Quantity * input.UnitPrice,
			Type:        MovementIn,
			Reason:      input.Reason,
			Reference:   reference,
		}
		movementID, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = movementID

		newQty := stock.Quantity + input.Quantity
		newValue := stock.Quantity*stock.UnitPrice + input.Quantity*input.UnitPrice
		newPrice := input.UnitPrice
		if newQty != 0 {
			newPrice = newValue / newQty
		}
		stock.Quantity = newQty
		stock.UnitPrice = newPrice
		stock.TotalValue = newValue
		if err := tx.UpsertStock(ctx, stock); err != nil {
			return err
		}

		if err := tx.AdjustCatalogStock(ctx, input.ProductID, input.Quantity); err != nil {
			return err
		}

		if err := s.applyPrincipalIn(ctx, tx, input); err != nil {
			return err
		}

		result = MovementResult{Movement: movement, Stock: stock}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return MovementResult{}, err
	}

	s.afterMovement(ctx, input.ActorID, input.ProductID, input.WarehouseID, input.Quantity, MovementIn, input.Reason)
	return result, nil
}

// ApplyStockOut posts an outbound movement valued at the stock's current
// average unit price. Exits never change the unit price, only quantity and
// value. The legacy principal mirror is not touched on exits; the mirror
// reconciliation job repairs the resulting drift from the movement log.
func (s *Service) ApplyStockOut(ctx context.Context, input StockOutInput) (MovementResult, error) {
	if input.WarehouseID == 0 || input.ProductID == 0 {
		return MovementResult{}, shared.NewValidationError("warehouse_id/product_id", "warehouse and product required")
	}
	if input.Quantity <= 0 {
		return MovementResult{}, shared.NewValidationError("quantity", "must be positive")
	}
	reference := input.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	key := fmt.Sprintf("out:%s:%d:%d", reference, input.WarehouseID, input.ProductID)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return MovementResult{}, err
		}
		insertedKey = true
	}

	var result MovementResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stock, err := tx.GetStockForUpdate(ctx, input.WarehouseID, input.ProductID)
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}
		if input.Quantity > stock.Quantity+1e-9 {
			return &shared.InsufficientStockError{
				WarehouseID: input.WarehouseID,
				ProductID:   input.ProductID,
				Requested:   input.Quantity,
				Available:   stock.Quantity,
			}
		}

		movement := StockMovement{
			WarehouseID: input.WarehouseID,
			ProductID:   input.ProductID,
			Quantity:    input.Quantity,
			UnitPrice:   stock.UnitPrice,
			TotalValue:  input.Quantity * stock.UnitPrice,
			Type:        MovementOut,
			Reason:      input.Reason,
			Reference:   reference,
		}
		movementID, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = movementID

		newQty := stock.Quantity - input.Quantity
		if math.Abs(newQty) < 1e-9 {
			newQty = 0
		}
		stock.Quantity = newQty
		stock.TotalValue = newQty * stock.UnitPrice
		if err := tx.UpsertStock(ctx, stock); err != nil {
			return err
		}

		if err := tx.AdjustCatalogStock(ctx, input.ProductID, -input.Quantity); err != nil {
			return err
		}

		result = MovementResult{Movement: movement, Stock: stock}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return MovementResult{}, err
	}

	s.afterMovement(ctx, input.ActorID, input.ProductID, input.WarehouseID, -input.Quantity, MovementOut, input.Reason)
	return result, nil
}

// GetStock returns the current aggregate for (warehouse, product).
func (s *Service) GetStock(ctx context.Context, warehouseID, productID int64) (WarehouseStock, error) {
	if warehouseID == 0 || productID == 0 {
		return WarehouseStock{}, shared.NewValidationError("warehouse_id/product_id", "warehouse and product required")
	}
	stock, err := s.repo.GetStock(ctx, warehouseID, productID)
	if errors.Is(err, ErrStockNotFound) {
		return stock, nil
	}
	return stock, err
}

// ListMovements lists movement log entries.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, error) {
	return s.repo.ListMovements(ctx, filter)
}

func (s *Service) applyPrincipalIn(ctx context.Context, tx TxRepository, input StockInInput) error {
	article, entrepot, err := tx.LookupNames(ctx, input.WarehouseID, input.ProductID)
	if err != nil {
		return err
	}
	principal, err := tx.GetPrincipalForUpdate(ctx, article, entrepot)
	if err != nil && !errors.Is(err, ErrPrincipalNotFound) {
		return err
	}
	newQty := principal.Quantite + input.Quantity
	newValue := principal.Quantite*principal.PrixUnitaire + input.Quantity*input.UnitPrice
	newPrice := input.UnitPrice
	if newQty != 0 {
		newPrice = newValue / newQty
	}
	principal.Quantite = newQty
	principal.PrixUnitaire = newPrice
	principal.ValeurTotale = newValue
	principal.CategorieAction = "entree"
	return tx.UpsertPrincipal(ctx, principal)
}

func (s *Service) afterMovement(ctx context.Context, actorID, productID, warehouseID int64, qty float64, mt MovementType, reason string) {
	if s.metrics != nil {
		s.metrics.CountMovement(string(mt))
	}
	if s.cache != nil {
		_ = s.cache.InvalidateProduct(ctx, productID)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   fmt.Sprintf("inventory:%s", mt),
			Entity:   "warehouse_stock_movement",
			EntityID: fmt.Sprintf("%d:%d", warehouseID, productID),
			Meta: map[string]any{
				"warehouse_id": warehouseID,
				"product_id":   productID,
				"qty":          qty,
				"reason":       reason,
			},
			At: time.Now().UTC(),
		})
	}
}
