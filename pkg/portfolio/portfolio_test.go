package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fill(id common.FillID, side common.OrderSide, qty, price, commission string, at time.Time) common.Fill {
	return common.Fill{
		ID:         id,
		OrderID:    common.OrderID(id),
		Symbol:     "EURUSD",
		Side:       side,
		Quantity:   fixed.MustParse(qty),
		Price:      fixed.MustParse(price),
		Commission: fixed.MustParse(commission),
		TimeStamp:  at,
	}
}

func TestPortfolio_RoundTripLong(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	// Buy 10 at 100.
	result, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "0", t0))
	require.NoError(t, err)
	assert.True(t, result.Opened)
	assert.False(t, result.Closed)
	assert.True(t, result.Position.Quantity.Eq(fixed.FromInt(10)))
	assert.True(t, result.Position.AvgPrice.Eq(fixed.FromInt(100)))
	assert.True(t, p.Account().Balance.Eq(fixed.FromInt(10000)), "opening moves no cash")

	// Sell 10 at 110: realizes exactly 100.
	result, err = p.Apply(fill(2, common.OrderSideSell, "10", "110", "0", t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.True(t, result.Closed)
	assert.True(t, result.Realized.Eq(fixed.FromInt(100)))
	assert.True(t, p.Account().Balance.Eq(fixed.FromInt(10100)))
	assert.True(t, p.Account().RealizedPnL.Eq(fixed.FromInt(100)))

	_, open := p.Position("EURUSD")
	assert.False(t, open)
}

func TestPortfolio_RoundTripShort(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideSell, "10", "110", "0", t0))
	require.NoError(t, err)

	position, open := p.Position("EURUSD")
	require.True(t, open)
	assert.True(t, position.Quantity.Eq(fixed.FromInt(-10)))

	result, err := p.Apply(fill(2, common.OrderSideBuy, "10", "100", "0", t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.True(t, result.Closed)
	assert.True(t, result.Realized.Eq(fixed.FromInt(100)), "short profits when price falls")
}

func TestPortfolio_WeightedAverageIncrease(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "0", t0))
	require.NoError(t, err)
	result, err := p.Apply(fill(2, common.OrderSideBuy, "10", "110", "0", t0.Add(time.Second)))
	require.NoError(t, err)

	assert.True(t, result.Position.Quantity.Eq(fixed.FromInt(20)))
	assert.True(t, result.Position.AvgPrice.Eq(fixed.FromInt(105)))
	assert.True(t, result.Realized.IsZero(), "increasing exposure realizes nothing")
}

func TestPortfolio_PartialReduce(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "0", t0))
	require.NoError(t, err)

	result, err := p.Apply(fill(2, common.OrderSideSell, "4", "105", "0", t0.Add(time.Second)))
	require.NoError(t, err)

	assert.False(t, result.Closed)
	assert.True(t, result.Realized.Eq(fixed.FromInt(20)), "4 units of 5 profit")
	assert.True(t, result.Position.Quantity.Eq(fixed.FromInt(6)))
	assert.True(t, result.Position.AvgPrice.Eq(fixed.FromInt(100)), "reducing keeps the entry price")
}

func TestPortfolio_Reversal(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "0", t0))
	require.NoError(t, err)

	// Sell 15 at 110: the 10 long closes for +100, 5 short opens at 110.
	result, err := p.Apply(fill(2, common.OrderSideSell, "15", "110", "0", t0.Add(time.Second)))
	require.NoError(t, err)

	assert.True(t, result.Realized.Eq(fixed.FromInt(100)))
	assert.True(t, result.Position.Quantity.Eq(fixed.FromInt(-5)))
	assert.True(t, result.Position.AvgPrice.Eq(fixed.FromInt(110)))
	assert.False(t, result.Closed)
}

func TestPortfolio_CommissionsHitBalance(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "2.50", t0))
	require.NoError(t, err)

	assert.True(t, p.Account().Balance.Eq(fixed.MustParse("9997.50")))
	assert.True(t, p.Account().Commissions.Eq(fixed.MustParse("2.50")))
	assert.True(t, p.Account().RealizedPnL.IsZero())
}

func TestPortfolio_DuplicateFillRejected(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	f := fill(1, common.OrderSideBuy, "10", "100", "1", t0)
	_, err := p.Apply(f)
	require.NoError(t, err)

	before := p.Snapshot()
	_, err = p.Apply(f)
	assert.ErrorIs(t, err, ErrDuplicateFill)

	after := p.Snapshot()
	assert.True(t, before.Account.Balance.Eq(after.Account.Balance), "rejected fill must not move cash")
	assert.True(t, before.Positions["EURUSD"].Quantity.Eq(after.Positions["EURUSD"].Quantity))
}

func TestPortfolio_EquityInvariant(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "0", t0))
	require.NoError(t, err)

	marks := map[string]fixed.Point{"EURUSD": fixed.FromInt(104)}
	unrealized := p.UnrealizedPnL(marks)
	assert.True(t, unrealized.Eq(fixed.FromInt(40)))
	assert.True(t, p.Equity(marks).Eq(p.Account().Balance.Add(unrealized)))

	// No mark for the instrument values it at entry.
	assert.True(t, p.UnrealizedPnL(nil).IsZero())
	assert.True(t, p.Equity(nil).Eq(p.Account().Balance))
}

func TestPortfolio_SnapshotIsACopy(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "0", t0))
	require.NoError(t, err)

	snap := p.Snapshot()
	mutated := snap.Positions["EURUSD"]
	mutated.Quantity = fixed.FromInt(999)
	snap.Positions["EURUSD"] = mutated

	position, _ := p.Position("EURUSD")
	assert.True(t, position.Quantity.Eq(fixed.FromInt(10)), "snapshot mutation must not leak")
}

func TestPortfolio_Reset(t *testing.T) {
	p := New("USD", fixed.FromInt(10000))

	_, err := p.Apply(fill(1, common.OrderSideBuy, "10", "100", "5", t0))
	require.NoError(t, err)

	p.Reset()

	assert.True(t, p.Account().Balance.Eq(fixed.FromInt(10000)))
	assert.Equal(t, "USD", p.Account().Currency)
	_, open := p.Position("EURUSD")
	assert.False(t, open)

	// Fill ids are accepted again after a reset.
	_, err = p.Apply(fill(1, common.OrderSideBuy, "10", "100", "0", t0))
	assert.NoError(t, err)
}
