package common

import (
	"time"

	"github.com/quantfabric/replay/pkg/utility"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type Bar struct {
	Open   fixed.Point `json:"open"`
	High   fixed.Point `json:"high"`
	Low    fixed.Point `json:"low"`
	Close  fixed.Point `json:"close"`
	Volume fixed.Point `json:"volume"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	Period      time.Duration       `json:"period"`
	TimeStamp   time.Time           `json:"ts"`
}
