package common

import (
	"time"

	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

// FootprintLevel accumulates traded volume at one rounded price.
// Delta always equals AskVolume - BidVolume.
type FootprintLevel struct {
	Price     fixed.Point `json:"price"`
	BidVolume fixed.Point `json:"bid_volume"`
	AskVolume fixed.Point `json:"ask_volume"`
	Delta     fixed.Point `json:"delta"`
}

type Imbalance struct {
	Price fixed.Point `json:"price"`
	Ratio fixed.Point `json:"ratio"`
	Side  Side        `json:"side"`
}

// FootprintBar is one time bucket of per-price volume. The current bar is
// mutable inside the aggregator; emitted bars are copies and completed bars
// never change.
type FootprintBar struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`

	OpenTime  time.Time     `json:"open_time"`
	CloseTime time.Time     `json:"close_time"`
	Period    time.Duration `json:"period"`

	Open  fixed.Point `json:"open"`
	High  fixed.Point `json:"high"`
	Low   fixed.Point `json:"low"`
	Close fixed.Point `json:"close"`

	Volume    fixed.Point `json:"volume"`
	Delta     fixed.Point `json:"delta"`
	BidVolume fixed.Point `json:"bid_volume"`
	AskVolume fixed.Point `json:"ask_volume"`

	// Levels are sorted by ascending price.
	Levels     []FootprintLevel `json:"levels"`
	Imbalances []Imbalance      `json:"imbalances,omitempty"`

	PointOfControl fixed.Point `json:"poc,omitzero"`

	Complete bool `json:"complete"`
}

type FootprintUpdateKind string

const (
	FootprintBarUpdate   FootprintUpdateKind = "bar_update"
	FootprintBarComplete FootprintUpdateKind = "bar_complete"
)

type FootprintUpdate struct {
	Kind FootprintUpdateKind `json:"kind"`
	Bar  FootprintBar        `json:"bar"`
}
