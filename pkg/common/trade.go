package common

import (
	"time"

	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideUnknown Side = "unknown"
)

// Trade is a normalized trade print. Once ingested it is never mutated;
// the engine derives an enriched copy with the resolved side and delta.
type Trade struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ID          string              `json:"id,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`

	Price fixed.Point `json:"price"`
	Size  fixed.Point `json:"size"`
	Side  Side        `json:"side,omitempty"`

	// Delta is the signed size once the aggressor side is resolved.
	Delta fixed.Point `json:"delta,omitzero"`

	// Book context at trade time, zero when the feed did not supply it.
	Bid fixed.Point `json:"bid,omitzero"`
	Ask fixed.Point `json:"ask,omitzero"`
}

func (t Trade) HasBookContext() bool {
	return !t.Bid.IsZero() && !t.Ask.IsZero()
}
