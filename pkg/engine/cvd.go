package engine

import (
	"time"

	"orderflow/pkg/common"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/circular"
	"orderflow/pkg/utility/fixed"
)

const cvdComponentName = "engine.cvd"

// CvdCalculator keeps the running cumulative volume delta. Unknown-side
// trades never move it: CVD is a directional signal, unlike the footprint's
// balanced split.
type CvdCalculator struct {
	symbol      string
	barDuration time.Duration

	cumulative fixed.Point
	barDelta   fixed.Point
	barOpen    time.Time
	hasBar     bool

	history *circular.Buffer[common.CvdPoint]
}

func NewCvdCalculator(symbol string, barDuration time.Duration, historyCapacity uint) *CvdCalculator {
	if barDuration <= 0 {
		panic("bar duration must be positive")
	}
	return &CvdCalculator{
		symbol:      symbol,
		barDuration: barDuration,
		history:     circular.NewBuffer[common.CvdPoint](historyCapacity),
	}
}

func (c *CvdCalculator) Ingest(trade common.Trade) common.CvdPoint {
	bucket := trade.TimeStamp.Truncate(c.barDuration)
	if !c.hasBar || !bucket.Equal(c.barOpen) {
		c.barOpen = bucket
		c.barDelta = fixed.Zero
		c.hasBar = true
	}

	delta := SignedSize(trade.Side, trade.Size)
	c.cumulative = c.cumulative.Add(delta)
	c.barDelta = c.barDelta.Add(delta)

	point := common.CvdPoint{
		Source:      cvdComponentName,
		Symbol:      c.symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   trade.TimeStamp,
		Cumulative:  c.cumulative,
		BarDelta:    c.barDelta,
	}
	c.history.Push(point)

	return point
}

func (c *CvdCalculator) Cumulative() fixed.Point {
	return c.cumulative
}

// History returns up to n most recent points, oldest-first.
func (c *CvdCalculator) History(n uint) []common.CvdPoint {
	return c.history.LastN(n)
}

// ResetSession zeroes the cumulative state and clears the series.
func (c *CvdCalculator) ResetSession() {
	c.cumulative = fixed.Zero
	c.barDelta = fixed.Zero
	c.hasBar = false
	c.history.Clear()
}
