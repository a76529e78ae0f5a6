package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantfabric/replay/examples/strategy"
	"github.com/quantfabric/replay/internal/dbg"
	"github.com/quantfabric/replay/pkg/bus"
	"github.com/quantfabric/replay/pkg/clock"
	"github.com/quantfabric/replay/pkg/exchange"
	"github.com/quantfabric/replay/pkg/exchange/sandbox"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/feed/duckdb"
	"github.com/quantfabric/replay/pkg/feed/historical"
	"github.com/quantfabric/replay/pkg/feed/synthetic"
	"github.com/quantfabric/replay/pkg/middleware"
	"github.com/quantfabric/replay/pkg/portfolio"
	"github.com/quantfabric/replay/pkg/risk"
	"github.com/quantfabric/replay/pkg/simulation"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := dbg.NewZapLogger(cfg.Debug)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)
	slogger := dbg.NewSlogLogger(cfg.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	series, err := loadSeries(ctx, cfg)
	if err != nil {
		logger.Fatal("unable to load feed", zap.Error(err))
	}

	resolution := feed.ResolutionAll
	if cfg.BarPeriod > 0 {
		if series, err = feed.BuildBars(series, cfg.BarPeriod, feed.PriceModeMid); err != nil {
			logger.Fatal("unable to aggregate bars", zap.Error(err))
		}
		resolution = feed.ResolutionBar
	}

	catalog := exchange.NewCatalog(exchange.SymbolInfo{
		SymbolName:    cfg.Symbol,
		SymbolId:      1,
		QuoteCurrency: cfg.Currency,
		Digits:        cfg.PriceDigits,
		ContractSize:  fixed.MustParse(cfg.ContractSize),
		Leverage:      fixed.MustParse(cfg.Leverage),
	})

	router := bus.NewRouter(cfg.RouterCapacity)
	simClock := clock.New(time.Time{})

	engine := sandbox.NewEngine(router, simClock, catalog,
		sandbox.WithSeed(cfg.Seed),
		sandbox.WithFillModel(sandbox.InstantFill{Slippage: fixed.MustParse(cfg.Slippage)}),
		sandbox.WithCommissionModel(sandbox.RateCommission{Rate: fixed.MustParse(cfg.CommissionRate)}),
	)
	gate := risk.NewGate(catalog, risk.Configuration{
		MaxPositionQuantity: fixed.MustParse(cfg.MaxPositionQuantity),
		PreventSelfMatch:    true,
	})
	book := portfolio.New(cfg.Currency, fixed.MustParse(cfg.StartCapital))

	reversion := strategy.NewMeanReversion(cfg.Symbol, cfg.Window,
		fixed.MustParse(cfg.Quantity), fixed.MustParse(cfg.EntryThreshold))

	orchestrator, err := simulation.New(slogger, router, simClock, engine, gate, book,
		simulation.Configuration{
			Currency:         cfg.Currency,
			StartCapital:     fixed.MustParse(cfg.StartCapital),
			Resolution:       resolution,
			SnapshotInterval: cfg.SnapshotInterval,
		},
		[]feed.Series{series},
		reversion,
	)
	if err != nil {
		logger.Fatal("unable to build simulation", zap.Error(err))
	}

	telemetry := middleware.NewTelemetry(logger)
	monitor := middleware.NewMonitor(middleware.MonitorPositionsOpened |
		middleware.MonitorPositionsClosed | middleware.MonitorOrdersRejected)

	posClosedHdl := middleware.NoopPosClsHdl
	orderFilledHdl := middleware.NoopOrderFillHdl
	if cfg.Ledger != "" {
		db, err := sql.Open("duckdb", cfg.Ledger)
		if err != nil {
			logger.Fatal("unable to open ledger database", zap.Error(err))
		}
		defer func(db *sql.DB) {
			_ = db.Close()
		}(db)

		ledger := middleware.NewLedger(db, uuid.NewString())
		if err := ledger.EnsureSchema(ctx); err != nil {
			logger.Fatal("unable to prepare ledger schema", zap.Error(err))
		}
		posClosedHdl = ledger.WithPositionClosed(posClosedHdl)
		orderFilledHdl = ledger.WithOrderFilled(orderFilledHdl)
	}

	router.OnTick = telemetry.WithTick(monitor.WithTick(middleware.NoopTickHdl))
	router.OnBar = telemetry.WithBar(monitor.WithBar(middleware.NoopBarHdl))
	router.OnEquity = telemetry.WithEquity(monitor.WithEquity(middleware.NoopEquityHdl))
	router.OnBalance = telemetry.WithBalance(monitor.WithBalance(middleware.NoopBalanceHdl))
	router.OnPositionOpened = telemetry.WithPositionOpened(monitor.WithPositionOpened(middleware.NoopPosOpnHdl))
	router.OnPositionUpdated = telemetry.WithPositionUpdated(monitor.WithPositionUpdated(middleware.NoopPosUpdHdl))
	router.OnPositionClosed = telemetry.WithPositionClosed(monitor.WithPositionClosed(posClosedHdl))
	router.OnOrderAccepted = telemetry.WithOrderAccepted(monitor.WithOrderAccepted(middleware.NoopOrderAccHdl))
	router.OnOrderRejected = telemetry.WithOrderRejected(monitor.WithOrderRejected(middleware.NoopOrderRjctHdl))
	router.OnOrderCancelled = telemetry.WithOrderCancelled(monitor.WithOrderCancelled(middleware.NoopOrderCnclHdl))
	router.OnOrderFilled = telemetry.WithOrderFilled(monitor.WithOrderFilled(orderFilledHdl))

	start, stop, err := runWindow(cfg, orchestrator)
	if err != nil {
		logger.Fatal("invalid run window", zap.Error(err))
	}

	if err := orchestrator.Run(ctx, start, stop); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", zap.Error(err))
	}

	telemetry.PrintStatistics()
	router.Statistics().Print()
	orchestrator.PerformanceReport().Print(logger)
}

func loadSeries(ctx context.Context, cfg Config) (feed.Series, error) {
	switch cfg.Feed {
	case "binary":
		file, err := historical.OpenTickFile(cfg.TickFile, cfg.Symbol)
		if err != nil {
			return feed.Series{}, err
		}
		defer file.Close()
		return file.LoadSeries(time.Time{}, time.Unix(0, 1<<62))

	case "duckdb":
		reader := duckdb.NewReader(cfg.Database)
		if err := reader.Connect(); err != nil {
			return feed.Series{}, err
		}
		defer reader.Close()
		return reader.LoadTickSeries(ctx, cfg.Symbol, time.Time{}, time.Unix(0, 1<<62))

	default:
		startTime, err := time.Parse(time.RFC3339, cfg.SyntheticStart)
		if err != nil {
			return feed.Series{}, err
		}
		generator := synthetic.NewGenerator(synthetic.Config{
			Symbol:       cfg.Symbol,
			StartTime:    startTime,
			StartPrice:   fixed.MustParse(cfg.SyntheticPrice),
			Spread:       fixed.MustParse(cfg.SyntheticSpread),
			Drift:        cfg.SyntheticDrift,
			Volatility:   cfg.SyntheticVolatility,
			TickInterval: cfg.SyntheticInterval,
			Ticks:        cfg.SyntheticTicks,
			PriceDigits:  cfg.PriceDigits,
		}, cfg.Seed)
		return generator.Series()
	}
}

// runWindow resolves the configured start and stop times, defaulting each
// side to the feed bounds.
func runWindow(cfg Config, orchestrator *simulation.Orchestrator) (time.Time, time.Time, error) {
	first, last, ok := orchestrator.Bounds()
	if !ok {
		return time.Time{}, time.Time{}, errors.New("feed is empty")
	}

	start, stop := first, last
	var err error
	if cfg.Start != "" {
		if start, err = time.Parse(time.RFC3339, cfg.Start); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if cfg.Stop != "" {
		if stop, err = time.Parse(time.RFC3339, cfg.Stop); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, stop, nil
}
