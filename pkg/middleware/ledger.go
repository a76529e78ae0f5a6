package middleware

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/common"
)

// Ledger persists closed positions and fills to a SQL database, typically
// the same duckdb file the feed was loaded from. Inserts run inline on the
// dispatch goroutine so the ledger stays in event order.
type Ledger struct {
	db    *sql.DB
	runId string
}

func NewLedger(db *sql.DB, runId string) *Ledger {
	return &Ledger{
		db:    db,
		runId: runId,
	}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS closed_positions (
			run_id     VARCHAR,
			symbol     VARCHAR,
			quantity   VARCHAR,
			avg_price  VARCHAR,
			open_time  TIMESTAMP,
			close_time TIMESTAMP
		)`); err != nil {
		return err
	}
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fills (
			run_id     VARCHAR,
			fill_id    BIGINT,
			order_id   BIGINT,
			symbol     VARCHAR,
			side       SMALLINT,
			quantity   VARCHAR,
			price      VARCHAR,
			commission VARCHAR,
			ts         TIMESTAMP
		)`)
	return err
}

func (l *Ledger) WithPositionClosed(handler bus.PositionClosedEventHandler) bus.PositionClosedEventHandler {
	return func(ctx context.Context, position common.Position) {
		if _, err := l.db.ExecContext(ctx,
			`INSERT INTO closed_positions VALUES (?, ?, ?, ?, ?, ?)`,
			l.runId, position.Symbol, position.Quantity.String(),
			position.AvgPrice.String(), position.OpenTime, position.UpdatedAt,
		); err != nil {
			slog.Warn("unable to insert closed position", "error", err)
		}
		handler(ctx, position)
	}
}

func (l *Ledger) WithOrderFilled(handler bus.OrderFilledEventHandler) bus.OrderFilledEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		if _, err := l.db.ExecContext(ctx,
			`INSERT INTO fills VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.runId, int64(fill.ID), int64(fill.OrderID), fill.Symbol,
			int16(fill.Side), fill.Quantity.String(), fill.Price.String(),
			fill.Commission.String(), fill.TimeStamp,
		); err != nil {
			slog.Warn("unable to insert fill", "error", err)
		}
		handler(ctx, fill)
	}
}
