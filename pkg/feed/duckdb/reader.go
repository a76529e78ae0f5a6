// Package duckdb loads tick and bar series for the replay feed from a duckdb
// database, one table per instrument and data kind.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

const sourceName = "feed.duckdb"

type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

// LoadTickSeries reads <symbol>_ticks rows in [from, to] ordered by timestamp.
func (r *Reader) LoadTickSeries(ctx context.Context, symbol string, from, to time.Time) (feed.Series, error) {
	query := fmt.Sprintf(
		`SELECT ts, bid, ask, bid_volume, ask_volume FROM %s_ticks WHERE ts BETWEEN ? AND ? ORDER BY ts`,
		symbol)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return feed.Series{}, fmt.Errorf("error querying ticks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ticks []common.Tick
	for rows.Next() {
		var (
			ts                             time.Time
			bid, ask, bidVolume, askVolume float64
		)
		if err := rows.Scan(&ts, &bid, &ask, &bidVolume, &askVolume); err != nil {
			return feed.Series{}, fmt.Errorf("error scanning tick row: %w", err)
		}
		ticks = append(ticks, common.Tick{
			Source:    sourceName,
			Symbol:    symbol,
			TimeStamp: ts,
			Bid:       fixed.FromFloat64(bid),
			Ask:       fixed.FromFloat64(ask),
			BidVolume: fixed.FromFloat64(bidVolume),
			AskVolume: fixed.FromFloat64(askVolume),
		})
	}
	if err := rows.Err(); err != nil {
		return feed.Series{}, fmt.Errorf("error scanning tick rows: %w", err)
	}

	return feed.NewSeries(symbol, ticks, nil)
}

// LoadBarSeries reads <symbol>_bars rows in [from, to] ordered by timestamp.
func (r *Reader) LoadBarSeries(ctx context.Context, symbol string, period time.Duration, from, to time.Time) (feed.Series, error) {
	query := fmt.Sprintf(
		`SELECT ts, open, high, low, close, volume FROM %s_bars WHERE ts BETWEEN ? AND ? ORDER BY ts`,
		symbol)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return feed.Series{}, fmt.Errorf("error querying bars: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var bars []common.Bar
	for rows.Next() {
		var (
			ts                              time.Time
			open, high, low, closeP, volume float64
		)
		if err := rows.Scan(&ts, &open, &high, &low, &closeP, &volume); err != nil {
			return feed.Series{}, fmt.Errorf("error scanning bar row: %w", err)
		}
		bars = append(bars, common.Bar{
			Source:    sourceName,
			Symbol:    symbol,
			Period:    period,
			TimeStamp: ts,
			Open:      fixed.FromFloat64(open),
			High:      fixed.FromFloat64(high),
			Low:       fixed.FromFloat64(low),
			Close:     fixed.FromFloat64(closeP),
			Volume:    fixed.FromFloat64(volume),
		})
	}
	if err := rows.Err(); err != nil {
		return feed.Series{}, fmt.Errorf("error scanning bar rows: %w", err)
	}

	return feed.NewSeries(symbol, nil, bars)
}
