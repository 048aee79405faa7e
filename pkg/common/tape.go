package common

import (
	"time"

	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

// Absorption reports high traded volume inside a tight price range,
// a sign that resting liquidity is soaking up aggressive flow.
type Absorption struct {
	TimeStamp  time.Time   `json:"ts"`
	Volume     fixed.Point `json:"volume"`
	PriceRange fixed.Point `json:"price_range"`
	Bias       Side        `json:"bias"`
}

// TapeMetrics is the per-trade output of the tape analyzer.
type TapeMetrics struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`

	// Speed is the number of prints within the trailing second.
	Speed      int         `json:"speed"`
	LargePrint bool        `json:"large_print"`
	Absorption *Absorption `json:"absorption,omitempty"`
}

// MetricsUpdate is the periodic roll-up emitted on a fixed cadence
// independent of tick arrival.
type MetricsUpdate struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`

	TapeSpeed  int         `json:"tape_speed"`
	Absorption *Absorption `json:"absorption,omitempty"`

	DomBalance    fixed.Point `json:"dom_balance,omitzero"`
	HasDomBalance bool        `json:"has_dom_balance"`
}

// MetricsFlush is the internal cadence event that triggers a MetricsUpdate.
type MetricsFlush struct {
	TimeStamp time.Time `json:"ts"`
}
