package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// paymentDriftTolerance allows for float rounding between the cached
// paid_amount and the summed ledger.
const paymentDriftTolerance = 0.01

// PaymentIntegrityJob compares each order's cached paid_amount against the
// sum of its payment ledger. Report-only: drift means a past partial failure
// or a manual edit, and fixing it is a human decision.
type PaymentIntegrityJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewPaymentIntegrityJob wires dependencies for the integrity handler.
func NewPaymentIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *PaymentIntegrityJob {
	return &PaymentIntegrityJob{Pool: pool, Logger: logger}
}

// Handle processes payment integrity tasks.
func (j *PaymentIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("payment integrity: handler not configured")
	}
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	rows, err := j.Pool.Query(ctx, `SELECT o.id, o.paid_amount, COALESCE(SUM(p.amount), 0) AS ledger_total
FROM orders o
LEFT JOIN order_payments p ON p.order_id = o.id
GROUP BY o.id, o.paid_amount
HAVING ABS(o.paid_amount - COALESCE(SUM(p.amount), 0)) > $1`, paymentDriftTolerance)
	if err != nil {
		j.Logger.Error("payment integrity query", slog.Any("error", err))
		return err
	}
	defer rows.Close()

	drifted := 0
	for rows.Next() {
		var orderID int64
		var cached, ledger float64
		if err := rows.Scan(&orderID, &cached, &ledger); err != nil {
			return err
		}
		drifted++
		j.Logger.Warn("order paid_amount diverges from payment ledger",
			slog.Int64("order_id", orderID),
			slog.Float64("cached", cached),
			slog.Float64("ledger", ledger))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if drifted == 0 {
		j.Logger.Info("payment integrity check clean")
	} else {
		j.Logger.Warn("payment integrity check found drift", slog.Int("orders", drifted))
	}
	return nil
}
