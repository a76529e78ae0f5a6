// Package synthetic generates seeded random-walk tick series, used by the
// demo binary and by determinism tests that need reproducible inputs without
// shipping data files.
package synthetic

import (
	"math"
	"math/rand"
	"time"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/feed"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

const sourceName = "feed.synthetic"

// Config drives a geometric-brownian-motion price path. Two generators with
// the same config and seed emit identical series.
type Config struct {
	Symbol       string
	StartTime    time.Time
	StartPrice   fixed.Point
	Spread       fixed.Point
	Drift        float64       // annualized mu
	Volatility   float64       // annualized sigma
	TickInterval time.Duration // mean spacing between ticks
	Ticks        int
	PriceDigits  int
}

type Generator struct {
	cfg Config
	rng *rand.Rand
}

func NewGenerator(cfg Config, seed int64) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Series walks the price path and returns it as a validated feed series.
func (g *Generator) Series() (feed.Series, error) {
	const yearSeconds = 365.25 * 24 * 3600

	dt := g.cfg.TickInterval.Seconds() / yearSeconds
	drift := (g.cfg.Drift - 0.5*g.cfg.Volatility*g.cfg.Volatility) * dt
	diffusion := g.cfg.Volatility * math.Sqrt(dt)

	price, _ := g.cfg.StartPrice.Float64()
	halfSpread := g.cfg.Spread.DivInt(2)
	ts := g.cfg.StartTime

	ticks := make([]common.Tick, 0, g.cfg.Ticks)
	for i := 0; i < g.cfg.Ticks; i++ {
		price *= math.Exp(drift + diffusion*g.rng.NormFloat64())
		mid := fixed.FromFloat64(price).Rescale(g.cfg.PriceDigits)

		ticks = append(ticks, common.Tick{
			Source:    sourceName,
			Symbol:    g.cfg.Symbol,
			TimeStamp: ts,
			Bid:       mid.Sub(halfSpread),
			Ask:       mid.Add(halfSpread),
			Last:      mid,
			BidVolume: fixed.FromInt(50 + g.rng.Intn(100)),
			AskVolume: fixed.FromInt(50 + g.rng.Intn(100)),
		})

		// Jitter the spacing, never backwards.
		jitter := time.Duration(g.rng.Int63n(int64(g.cfg.TickInterval)))
		ts = ts.Add(g.cfg.TickInterval/2 + jitter)
	}

	return feed.NewSeries(g.cfg.Symbol, ticks, nil)
}
