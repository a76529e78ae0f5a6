package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"REPLAY_DEBUG" envDefault:"false"`

	// Feed selects the data source: synthetic, binary or duckdb.
	Feed     string `env:"REPLAY_FEED" envDefault:"synthetic"`
	Symbol   string `env:"REPLAY_SYMBOL" envDefault:"EURUSD"`
	TickFile string `env:"REPLAY_TICK_FILE"`
	Database string `env:"REPLAY_DUCKDB"`

	// BarPeriod, when set, aggregates the loaded ticks into bars of that
	// period and replays the bars instead.
	BarPeriod time.Duration `env:"REPLAY_BAR_PERIOD"`

	// Start and Stop bound the run, RFC 3339. Empty means the feed bounds.
	Start string `env:"REPLAY_START"`
	Stop  string `env:"REPLAY_STOP"`

	Currency       string `env:"REPLAY_CURRENCY" envDefault:"USD"`
	StartCapital   string `env:"REPLAY_START_CAPITAL" envDefault:"100000"`
	RouterCapacity int    `env:"REPLAY_ROUTER_CAPACITY" envDefault:"512"`

	Seed             int64         `env:"REPLAY_SEED" envDefault:"42"`
	SnapshotInterval time.Duration `env:"REPLAY_SNAPSHOT_INTERVAL" envDefault:"1m"`

	// Ledger, when set, is the duckdb file the run writes fills and closed
	// positions into.
	Ledger string `env:"REPLAY_LEDGER"`

	Slippage       string `env:"REPLAY_SLIPPAGE" envDefault:"0"`
	CommissionRate string `env:"REPLAY_COMMISSION_RATE" envDefault:"0.0002"`
	ContractSize   string `env:"REPLAY_CONTRACT_SIZE" envDefault:"1"`
	Leverage       string `env:"REPLAY_LEVERAGE" envDefault:"30"`
	PriceDigits    int    `env:"REPLAY_PRICE_DIGITS" envDefault:"5"`

	MaxPositionQuantity string `env:"REPLAY_MAX_POSITION_QTY" envDefault:"0"`

	// Mean-reversion example strategy parameters.
	Window         int    `env:"REPLAY_STRAT_WINDOW" envDefault:"120"`
	Quantity       string `env:"REPLAY_STRAT_QUANTITY" envDefault:"10000"`
	EntryThreshold string `env:"REPLAY_STRAT_ENTRY_Z" envDefault:"2.5"`

	// Synthetic feed parameters, used when Feed is synthetic.
	SyntheticStart      string        `env:"REPLAY_SYN_START" envDefault:"2024-01-01T00:00:00Z"`
	SyntheticPrice      string        `env:"REPLAY_SYN_PRICE" envDefault:"1.10000"`
	SyntheticSpread     string        `env:"REPLAY_SYN_SPREAD" envDefault:"0.00010"`
	SyntheticDrift      float64       `env:"REPLAY_SYN_DRIFT" envDefault:"0.02"`
	SyntheticVolatility float64       `env:"REPLAY_SYN_VOL" envDefault:"0.08"`
	SyntheticInterval   time.Duration `env:"REPLAY_SYN_INTERVAL" envDefault:"1s"`
	SyntheticTicks      int           `env:"REPLAY_SYN_TICKS" envDefault:"100000"`
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse environment: %w", err)
	}
	return cfg, nil
}
