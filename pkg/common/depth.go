package common

import (
	"time"

	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

type PriceLevel struct {
	Price fixed.Point `json:"price"`
	Size  fixed.Point `json:"size"`
}

// Depth is a full level-2 snapshot from the feed. Zero-size levels are
// treated as removals by the book builder.
type Depth struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`

	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}
