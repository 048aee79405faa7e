package common

import (
	"time"

	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

// CvdPoint is one sample of the cumulative volume delta series. Cumulative
// is the session total; BarDelta resets on every bar boundary.
type CvdPoint struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`

	Cumulative fixed.Point `json:"cumulative"`
	BarDelta   fixed.Point `json:"bar_delta"`
}
