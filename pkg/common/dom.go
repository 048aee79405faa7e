package common

import (
	"time"

	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

type LevelChange string

const (
	LevelAdded     LevelChange = "added"
	LevelModified  LevelChange = "modified"
	LevelRemoved   LevelChange = "removed"
	LevelUnchanged LevelChange = "unchanged"
)

type DomLevel struct {
	Price  fixed.Point `json:"price"`
	Size   fixed.Point `json:"size"`
	Change LevelChange `json:"change"`
	Large  bool        `json:"large,omitempty"`
}

// DomSnapshot is the annotated book view. Bids are ranked best-first
// (descending), asks ascending. Removed levels are reported separately so
// pulled liquidity stays visible without occupying a book rank. Best
// bid/ask/spread are nil when the respective side is empty.
type DomSnapshot struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`

	Bids []DomLevel `json:"bids"`
	Asks []DomLevel `json:"asks"`

	RemovedBids []DomLevel `json:"removed_bids,omitempty"`
	RemovedAsks []DomLevel `json:"removed_asks,omitempty"`

	BestBid *fixed.Point `json:"best_bid,omitempty"`
	BestAsk *fixed.Point `json:"best_ask,omitempty"`
	Spread  *fixed.Point `json:"spread,omitempty"`

	LargeThreshold fixed.Point `json:"large_threshold,omitzero"`
}

// Balance returns the resting-size ratio between the stronger and the weaker
// best level. The second return value is false when either side is empty or
// zero-sized, in which case the ratio is not applicable.
func (s DomSnapshot) Balance() (fixed.Point, bool) {
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return fixed.Zero, false
	}
	bidSize := s.Bids[0].Size
	askSize := s.Asks[0].Size
	if bidSize.IsZero() || askSize.IsZero() {
		return fixed.Zero, false
	}
	if bidSize.Gte(askSize) {
		return bidSize.Div(askSize), true
	}
	return askSize.Div(bidSize), true
}
