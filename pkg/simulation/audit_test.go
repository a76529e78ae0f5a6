package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/portfolio"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

func auditFill(id common.FillID, commission string, at time.Time) common.Fill {
	return common.Fill{
		ID:         id,
		OrderID:    common.OrderID(id),
		Symbol:     "EURUSD",
		Side:       common.OrderSideBuy,
		Quantity:   fixed.FromInt(10),
		Price:      fixed.FromInt(100),
		Commission: fixed.MustParse(commission),
		TimeStamp:  at,
	}
}

func openResult(openTime time.Time) portfolio.ApplyResult {
	return portfolio.ApplyResult{
		Opened:   true,
		Position: common.Position{Symbol: "EURUSD", OpenTime: openTime},
	}
}

func closeResult(realized string) portfolio.ApplyResult {
	return portfolio.ApplyResult{
		Closed:   true,
		Realized: fixed.MustParse(realized),
	}
}

func TestAudit_TradeAccumulation(t *testing.T) {
	a := NewAudit(0)

	a.RecordFill(auditFill(1, "1", baseTime), openResult(baseTime))
	a.RecordFill(auditFill(2, "1", baseTime.Add(time.Minute)), closeResult("50"))

	require.Len(t, a.Trades(), 1)
	trade := a.Trades()[0]
	assert.Equal(t, "EURUSD", trade.Symbol)
	assert.True(t, trade.NetProfit.Eq(fixed.FromInt(48)), "realized minus both commissions")
	assert.Equal(t, 2, trade.FillCount)
	assert.Equal(t, baseTime, trade.OpenTime)
	assert.Equal(t, baseTime.Add(time.Minute), trade.CloseTime)

	assert.Len(t, a.Fills(), 2)
}

func TestAudit_PartialReductionStaysOpen(t *testing.T) {
	a := NewAudit(0)

	a.RecordFill(auditFill(1, "0", baseTime), openResult(baseTime))
	partial := portfolio.ApplyResult{Realized: fixed.FromInt(20)}
	a.RecordFill(auditFill(2, "0", baseTime.Add(time.Second)), partial)

	assert.Empty(t, a.Trades())

	a.RecordFill(auditFill(3, "0", baseTime.Add(2*time.Second)), closeResult("30"))
	require.Len(t, a.Trades(), 1)
	assert.True(t, a.Trades()[0].NetProfit.Eq(fixed.FromInt(50)))
	assert.Equal(t, 3, a.Trades()[0].FillCount)
}

func TestAudit_SnapshotThrottle(t *testing.T) {
	a := NewAudit(time.Minute)

	equity := fixed.FromInt(10000)
	a.AddAccountSnapshot(equity, equity, baseTime)
	a.AddAccountSnapshot(equity, equity, baseTime.Add(30*time.Second))
	a.AddAccountSnapshot(equity, equity, baseTime.Add(time.Minute))

	assert.Len(t, a.EquityCurve(), 2, "the intermediate snapshot is throttled away")

	a.ForceAccountSnapshot(equity, equity, baseTime.Add(61*time.Second))
	assert.Len(t, a.EquityCurve(), 3, "forced snapshots bypass the throttle")
}

func TestAudit_EmptyReport(t *testing.T) {
	a := NewAudit(0)

	report := a.GenerateReport()
	assert.True(t, report.TotalProfit.IsZero())
	assert.Zero(t, report.TotalTrades)
	assert.True(t, report.StartDate.IsZero())
}

func TestAudit_ReportMath(t *testing.T) {
	a := NewAudit(0)

	a.ForceAccountSnapshot(fixed.FromInt(10000), fixed.FromInt(10000), baseTime)
	a.ForceAccountSnapshot(fixed.FromInt(9000), fixed.FromInt(9000), baseTime.Add(12*time.Hour))
	a.ForceAccountSnapshot(fixed.FromInt(11000), fixed.FromInt(11000), baseTime.Add(24*time.Hour))

	a.RecordFill(auditFill(1, "0", baseTime), openResult(baseTime))
	a.RecordFill(auditFill(2, "0", baseTime.Add(time.Hour)), closeResult("100"))
	a.RecordFill(auditFill(3, "0", baseTime.Add(2*time.Hour)), openResult(baseTime.Add(2*time.Hour)))
	a.RecordFill(auditFill(4, "0", baseTime.Add(3*time.Hour)), closeResult("300"))
	a.RecordFill(auditFill(5, "0", baseTime.Add(4*time.Hour)), openResult(baseTime.Add(4*time.Hour)))
	a.RecordFill(auditFill(6, "0", baseTime.Add(5*time.Hour)), closeResult("-200"))

	report := a.GenerateReport()

	assert.True(t, report.InitialEquity.Eq(fixed.FromInt(10000)))
	assert.True(t, report.FinalEquity.Eq(fixed.FromInt(11000)))
	assert.True(t, report.TotalProfit.Eq(fixed.MustParse("10.00")), "10000 to 11000 is 10 percent")
	assert.True(t, report.MaxDrawdown.Eq(fixed.MustParse("10.00")), "peak 10000 to trough 9000")

	assert.Equal(t, 3, report.TotalTrades)
	assert.Equal(t, 2, report.WinningTrades)
	assert.Equal(t, 1, report.LosingTrades)
	assert.True(t, report.AverageWin.Eq(fixed.FromInt(200)))
	assert.True(t, report.AverageLoss.Eq(fixed.FromInt(200)))
	assert.True(t, report.ProfitFactor.Eq(fixed.FromInt(2)))
	assert.True(t, report.RiskRewardRatio.Eq(fixed.One))
	assert.True(t, report.WinRate.Eq(fixed.MustParse("66.67")))
	assert.Equal(t, time.Hour, report.AverageTradeDuration)
	assert.Equal(t, baseTime, report.StartDate)
	assert.Equal(t, baseTime.Add(24*time.Hour), report.EndDate)
}

func TestAudit_Reset(t *testing.T) {
	a := NewAudit(0)

	a.ForceAccountSnapshot(fixed.FromInt(10000), fixed.FromInt(10000), baseTime)
	a.RecordFill(auditFill(1, "0", baseTime), openResult(baseTime))
	a.RecordOrder(common.Order{ID: 1})

	a.Reset()

	assert.Empty(t, a.EquityCurve())
	assert.Empty(t, a.Fills())
	assert.Empty(t, a.Orders())
	assert.Empty(t, a.Trades())

	// A reset audit starts a fresh round trip, not a continuation.
	a.RecordFill(auditFill(2, "0", baseTime), closeResult("10"))
	require.Len(t, a.Trades(), 1)
	assert.Equal(t, 1, a.Trades()[0].FillCount)
}
