package common

import (
	"time"

	"github.com/quantfabric/replay/pkg/utility"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

// Account is the single-currency cash account. Only the portfolio mutates it,
// and only in response to fills.
type Account struct {
	Currency    string      `json:"currency"`
	Balance     fixed.Point `json:"balance"`
	RealizedPnL fixed.Point `json:"realized_pnl"`
	Commissions fixed.Point `json:"commissions"`
}

type Balance struct {
	Value fixed.Point `json:"value"`

	Source      string              `json:"src,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type Equity struct {
	Value fixed.Point `json:"value"`

	Source      string              `json:"src,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
