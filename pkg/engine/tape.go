package engine

import (
	"time"

	"orderflow/pkg/common"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

const (
	tapeComponentName = "engine.tape"

	tapeSpeedWindow = time.Second

	// Absorption fires only with a meaningful sample of prints.
	absorptionMinTrades  = 10
	absorptionScanTrades = 20
	absorptionVolumeMult = 5
)

// TapeAnalyzer tracks trade print frequency and an absorption heuristic over
// a short rolling window. All windows are measured in event time, so replayed
// tape produces the same metrics as the live one did.
type TapeAnalyzer struct {
	symbol              string
	tickSize            fixed.Point
	largePrintThreshold fixed.Point
	absorptionWindow    time.Duration

	window []common.Trade
}

func NewTapeAnalyzer(symbol string, tickSize, largePrintThreshold fixed.Point, absorptionWindow time.Duration) *TapeAnalyzer {
	if absorptionWindow <= 0 {
		panic("absorption window must be positive")
	}
	return &TapeAnalyzer{
		symbol:              symbol,
		tickSize:            tickSize,
		largePrintThreshold: largePrintThreshold,
		absorptionWindow:    absorptionWindow,
	}
}

func (a *TapeAnalyzer) Ingest(trade common.Trade) common.TapeMetrics {
	a.window = append(a.window, trade)
	a.trim(trade.TimeStamp)

	metrics := common.TapeMetrics{
		Source:      tapeComponentName,
		Symbol:      a.symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   trade.TimeStamp,
		Speed:       a.speed(trade.TimeStamp),
		LargePrint:  !a.largePrintThreshold.IsZero() && trade.Size.Gte(a.largePrintThreshold),
		Absorption:  a.detectAbsorption(),
	}

	return metrics
}

// Speed returns the print count within the trailing second of now.
func (a *TapeAnalyzer) Speed(now time.Time) int {
	return a.speed(now)
}

func (a *TapeAnalyzer) Reset() {
	a.window = a.window[:0]
}

func (a *TapeAnalyzer) trim(now time.Time) {
	cutoff := now.Add(-a.absorptionWindow)
	idx := 0
	for idx < len(a.window) && a.window[idx].TimeStamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		a.window = append(a.window[:0], a.window[idx:]...)
	}
}

func (a *TapeAnalyzer) speed(now time.Time) int {
	cutoff := now.Add(-tapeSpeedWindow)
	count := 0
	for i := len(a.window) - 1; i >= 0; i-- {
		if a.window[i].TimeStamp.Before(cutoff) {
			break
		}
		count++
	}
	return count
}

// detectAbsorption looks for heavy volume trapped in a tight price range.
// It is a heuristic: false positives on coarse-tick instruments are expected
// and acceptable; non-detection is normal operation, not an error.
func (a *TapeAnalyzer) detectAbsorption() *common.Absorption {
	if len(a.window) < absorptionMinTrades || a.largePrintThreshold.IsZero() {
		return nil
	}

	scan := a.window
	if len(scan) > absorptionScanTrades {
		scan = scan[len(scan)-absorptionScanTrades:]
	}

	minPrice := scan[0].Price
	maxPrice := scan[0].Price
	volume := fixed.Zero
	buyVolume := fixed.Zero
	sellVolume := fixed.Zero

	for _, t := range scan {
		if t.Price.Lt(minPrice) {
			minPrice = t.Price
		}
		if t.Price.Gt(maxPrice) {
			maxPrice = t.Price
		}
		volume = volume.Add(t.Size)
		switch t.Side {
		case common.SideBuy:
			buyVolume = buyVolume.Add(t.Size)
		case common.SideSell:
			sellVolume = sellVolume.Add(t.Size)
		}
	}

	priceRange := maxPrice.Sub(minPrice)
	if priceRange.Gt(a.tickSize.MulInt(2)) {
		return nil
	}
	if volume.Lte(a.largePrintThreshold.MulInt(absorptionVolumeMult)) {
		return nil
	}

	bias := common.SideUnknown
	if buyVolume.Gt(sellVolume) {
		bias = common.SideBuy
	} else if sellVolume.Gt(buyVolume) {
		bias = common.SideSell
	}

	return &common.Absorption{
		TimeStamp:  scan[len(scan)-1].TimeStamp,
		Volume:     volume,
		PriceRange: priceRange,
		Bias:       bias,
	}
}
