package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// mirrorTolerance absorbs float accumulation noise when comparing a derived
// aggregate with a stored mirror.
const mirrorTolerance = 1e-6

type ledgerMovement struct {
	WarehouseID int64
	ProductID   int64
	Quantity    float64
	UnitPrice   float64
	Type        string
}

type movementKey struct {
	WarehouseID int64
	ProductID   int64
}

type stockAggregate struct {
	Quantity float64
	Value    float64
}

// UnitPrice is the value-weighted average carried by the aggregate.
func (a stockAggregate) UnitPrice() float64 {
	if a.Quantity <= 0 {
		return 0
	}
	return a.Value / a.Quantity
}

// replayMovements re-derives per-(warehouse, product) aggregates from the
// ordered movement log: entries add value at their own price, exits remove
// value at the running average. The log is the source of truth; every mirror
// is a projection of this replay.
func replayMovements(movements []ledgerMovement) map[movementKey]stockAggregate {
	aggregates := make(map[movementKey]stockAggregate)
	for _, m := range movements {
		key := movementKey{WarehouseID: m.WarehouseID, ProductID: m.ProductID}
		agg := aggregates[key]
		switch m.Type {
		case "in":
			agg.Quantity += m.Quantity
			agg.Value += m.Quantity * m.UnitPrice
		case "out":
			price := agg.UnitPrice()
			agg.Quantity -= m.Quantity
			agg.Value -= m.Quantity * price
			if math.Abs(agg.Quantity) < mirrorTolerance {
				agg.Quantity = 0
			}
			if agg.Quantity == 0 || math.Abs(agg.Value) < mirrorTolerance {
				agg.Value = agg.Quantity * price
			}
		}
		aggregates[key] = agg
	}
	return aggregates
}

// StockMirrorJob repairs the catalog stock mirror and the legacy principal
// mirror from the movement log. Exits never touch the principal table in the
// write path, so it drifts by design; this projector is what closes the gap.
type StockMirrorJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewStockMirrorJob wires dependencies for the reconcile handler.
func NewStockMirrorJob(pool *pgxpool.Pool, logger *slog.Logger) *StockMirrorJob {
	return &StockMirrorJob{Pool: pool, Logger: logger}
}

// Handle processes mirror reconcile tasks.
func (j *StockMirrorJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("stock mirror: handler not configured")
	}
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	movements, err := j.loadMovements(ctx)
	if err != nil {
		j.Logger.Error("load movement log", slog.Any("error", err))
		return err
	}
	aggregates := replayMovements(movements)

	repaired, err := j.repairCatalog(ctx, aggregates)
	if err != nil {
		j.Logger.Error("repair catalog mirror", slog.Any("error", err))
		return err
	}
	principalRepaired, err := j.repairPrincipal(ctx, aggregates)
	if err != nil {
		j.Logger.Error("repair principal mirror", slog.Any("error", err))
		return err
	}

	j.Logger.Info("stock mirrors reconciled",
		slog.Int("movements", len(movements)),
		slog.Int("catalog_repaired", repaired),
		slog.Int("principal_repaired", principalRepaired))
	return nil
}

func (j *StockMirrorJob) loadMovements(ctx context.Context) ([]ledgerMovement, error) {
	rows, err := j.Pool.Query(ctx, `SELECT warehouse_id, product_id, quantity, unit_price, type
FROM warehouse_stock_movements ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []ledgerMovement{}
	for rows.Next() {
		var m ledgerMovement
		if err := rows.Scan(&m.WarehouseID, &m.ProductID, &m.Quantity, &m.UnitPrice, &m.Type); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (j *StockMirrorJob) repairCatalog(ctx context.Context, aggregates map[movementKey]stockAggregate) (int, error) {
	derived := make(map[int64]float64)
	for key, agg := range aggregates {
		derived[key.ProductID] += agg.Quantity
	}

	rows, err := j.Pool.Query(ctx, `SELECT id, stock FROM catalog`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type drift struct {
		productID int64
		stored    float64
		expected  float64
	}
	drifted := []drift{}
	for rows.Next() {
		var productID int64
		var stored float64
		if err := rows.Scan(&productID, &stored); err != nil {
			return 0, err
		}
		expected := derived[productID]
		if expected < 0 {
			expected = 0
		}
		if math.Abs(stored-expected) > mirrorTolerance {
			drifted = append(drifted, drift{productID: productID, stored: stored, expected: expected})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, d := range drifted {
		if _, err := j.Pool.Exec(ctx, `UPDATE catalog SET stock=$2, updated_at=NOW() WHERE id=$1`,
			d.productID, d.expected); err != nil {
			return 0, err
		}
		j.Logger.Warn("catalog stock mirror repaired",
			slog.Int64("product_id", d.productID),
			slog.Float64("stored", d.stored),
			slog.Float64("derived", d.expected))
	}
	return len(drifted), nil
}

func (j *StockMirrorJob) repairPrincipal(ctx context.Context, aggregates map[movementKey]stockAggregate) (int, error) {
	names, err := j.loadNames(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for key, agg := range aggregates {
		pair, ok := names[key]
		if !ok {
			continue
		}
		var quantite, valeur float64
		err := j.Pool.QueryRow(ctx, `SELECT quantite, valeur_totale FROM stock_principal
WHERE article=$1 AND entrepot=$2`, pair.article, pair.entrepot).Scan(&quantite, &valeur)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return repaired, err
		}
		if err == nil && math.Abs(quantite-agg.Quantity) <= mirrorTolerance && math.Abs(valeur-agg.Value) <= mirrorTolerance {
			continue
		}

		if _, err := j.Pool.Exec(ctx, `INSERT INTO stock_principal
(article, entrepot, quantite, prix_unitaire, valeur_totale, categorie_action)
VALUES ($1,$2,$3,$4,$5,'regularisation')
ON CONFLICT (article, entrepot) DO UPDATE SET
	quantite=EXCLUDED.quantite,
	prix_unitaire=EXCLUDED.prix_unitaire,
	valeur_totale=EXCLUDED.valeur_totale,
	categorie_action=EXCLUDED.categorie_action`,
			pair.article, pair.entrepot, agg.Quantity, agg.UnitPrice(), agg.Value); err != nil {
			return repaired, err
		}
		j.Logger.Warn("principal stock mirror repaired",
			slog.String("article", pair.article),
			slog.String("entrepot", pair.entrepot),
			slog.Float64("derived_qty", agg.Quantity))
		repaired++
	}
	return repaired, nil
}

type namePair struct {
	article  string
	entrepot string
}

func (j *StockMirrorJob) loadNames(ctx context.Context) (map[movementKey]namePair, error) {
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT m.warehouse_id, m.product_id, c.name, w.name
FROM warehouse_stock_movements m
JOIN catalog c ON c.id = m.product_id
JOIN warehouses w ON w.id = m.warehouse_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[movementKey]namePair)
	for rows.Next() {
		var key movementKey
		var pair namePair
		if err := rows.Scan(&key.WarehouseID, &key.ProductID, &pair.article, &pair.entrepot); err != nil {
			return nil, err
		}
		names[key] = pair
	}
	return names, rows.Err()
}
