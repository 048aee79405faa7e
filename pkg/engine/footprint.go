package engine

import (
	"sort"
	"time"

	"orderflow/pkg/common"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/circular"
	"orderflow/pkg/utility/fixed"
)

const footprintComponentName = "engine.footprint"

// FootprintAggregator buckets trades into fixed-duration bars and tracks
// per-price bid/ask volume. Rotation is purely a function of the incoming
// trade's timestamp, never a wall-clock timer, so replay and live ingestion
// behave identically.
type FootprintAggregator struct {
	symbol         string
	barDuration    time.Duration
	tickSize       fixed.Point
	imbalanceRatio fixed.Point

	current   *footprintAccumulator
	completed *circular.Buffer[common.FootprintBar]
}

type footprintAccumulator struct {
	openTime  time.Time
	closeTime time.Time

	open  fixed.Point
	high  fixed.Point
	low   fixed.Point
	close fixed.Point

	bidVolume fixed.Point
	askVolume fixed.Point

	levels map[string]*common.FootprintLevel
}

func NewFootprintAggregator(symbol string, barDuration time.Duration, tickSize fixed.Point, imbalanceRatio fixed.Point, maxBars uint) *FootprintAggregator {
	if barDuration <= 0 {
		panic("bar duration must be positive")
	}
	return &FootprintAggregator{
		symbol:         symbol,
		barDuration:    barDuration,
		tickSize:       tickSize,
		imbalanceRatio: imbalanceRatio,
		completed:      circular.NewBuffer[common.FootprintBar](maxBars),
	}
}

// Ingest folds a trade into the current bar, rotating first when the trade
// belongs to the next bucket. It returns the refreshed current bar and, on
// rotation, the finalized previous bar.
func (f *FootprintAggregator) Ingest(trade common.Trade) (current common.FootprintBar, completed *common.FootprintBar) {
	bucket := trade.TimeStamp.Truncate(f.barDuration)

	if f.current != nil && !bucket.Equal(f.current.openTime) {
		bar := f.snapshot(f.current, true)
		f.completed.Push(bar)
		f.current = nil
		completed = &bar
	}

	if f.current == nil {
		f.current = &footprintAccumulator{
			openTime:  bucket,
			closeTime: trade.TimeStamp,
			open:      trade.Price,
			high:      trade.Price,
			low:       trade.Price,
			close:     trade.Price,
			levels:    make(map[string]*common.FootprintLevel),
		}
	}

	f.accumulate(f.current, trade)

	return f.snapshot(f.current, false), completed
}

// CurrentBar returns a finalized-on-read view of the bar in construction.
func (f *FootprintAggregator) CurrentBar() (common.FootprintBar, bool) {
	if f.current == nil {
		return common.FootprintBar{}, false
	}
	return f.snapshot(f.current, false), true
}

// CompletedBars returns up to n finalized bars, newest last.
func (f *FootprintAggregator) CompletedBars(n uint) []common.FootprintBar {
	return f.completed.LastN(n)
}

func (f *FootprintAggregator) Reset() {
	f.current = nil
	f.completed.Clear()
}

func (f *FootprintAggregator) accumulate(acc *footprintAccumulator, trade common.Trade) {
	if trade.Price.Gt(acc.high) {
		acc.high = trade.Price
	}
	if trade.Price.Lt(acc.low) {
		acc.low = trade.Price
	}
	acc.close = trade.Price
	acc.closeTime = trade.TimeStamp

	rounded := trade.Price.SnapToStep(f.tickSize)
	key := rounded.String()
	level, ok := acc.levels[key]
	if !ok {
		level = &common.FootprintLevel{Price: rounded}
		acc.levels[key] = level
	}

	switch trade.Side {
	case common.SideBuy:
		level.AskVolume = level.AskVolume.Add(trade.Size)
		acc.askVolume = acc.askVolume.Add(trade.Size)
	case common.SideSell:
		level.BidVolume = level.BidVolume.Add(trade.Size)
		acc.bidVolume = acc.bidVolume.Add(trade.Size)
	default:
		// Ambiguous flow is assumed balanced rather than attributed to
		// either side, preserving the total volume accounting.
		half := trade.Size.DivInt(2)
		level.BidVolume = level.BidVolume.Add(half)
		level.AskVolume = level.AskVolume.Add(trade.Size.Sub(half))
		acc.bidVolume = acc.bidVolume.Add(half)
		acc.askVolume = acc.askVolume.Add(trade.Size.Sub(half))
	}
	level.Delta = level.AskVolume.Sub(level.BidVolume)
}

func (f *FootprintAggregator) snapshot(acc *footprintAccumulator, complete bool) common.FootprintBar {
	levels := make([]common.FootprintLevel, 0, len(acc.levels))
	for _, level := range acc.levels {
		levels = append(levels, *level)
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price.Lt(levels[j].Price)
	})

	bar := common.FootprintBar{
		Source:      footprintComponentName,
		Symbol:      f.symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		OpenTime:    acc.openTime,
		CloseTime:   acc.closeTime,
		Period:      f.barDuration,
		Open:        acc.open,
		High:        acc.high,
		Low:         acc.low,
		Close:       acc.close,
		Volume:      acc.bidVolume.Add(acc.askVolume),
		Delta:       acc.askVolume.Sub(acc.bidVolume),
		BidVolume:   acc.bidVolume,
		AskVolume:   acc.askVolume,
		Levels:      levels,
		Imbalances:  f.detectImbalances(levels),
		Complete:    complete,
	}
	bar.PointOfControl = pointOfControl(levels)

	return bar
}

// detectImbalances compares diagonally adjacent levels. Aggressive buying is
// measured against the resting sell liquidity one tick above, aggressive
// selling against the resting buy liquidity one tick below. A zero
// denominator is "not applicable", never an infinite ratio.
func (f *FootprintAggregator) detectImbalances(levels []common.FootprintLevel) []common.Imbalance {
	var imbalances []common.Imbalance

	for i := 0; i+1 < len(levels); i++ {
		lower, upper := levels[i], levels[i+1]

		if !lower.BidVolume.IsZero() {
			ratio := upper.AskVolume.Div(lower.BidVolume)
			if ratio.Gte(f.imbalanceRatio) {
				imbalances = append(imbalances, common.Imbalance{
					Price: upper.Price,
					Ratio: ratio,
					Side:  common.SideBuy,
				})
			}
		}
		if !upper.AskVolume.IsZero() {
			ratio := lower.BidVolume.Div(upper.AskVolume)
			if ratio.Gte(f.imbalanceRatio) {
				imbalances = append(imbalances, common.Imbalance{
					Price: lower.Price,
					Ratio: ratio,
					Side:  common.SideSell,
				})
			}
		}
	}

	return imbalances
}

func pointOfControl(levels []common.FootprintLevel) fixed.Point {
	poc := fixed.Zero
	maxVolume := fixed.Zero
	for _, level := range levels {
		volume := level.BidVolume.Add(level.AskVolume)
		if volume.Gt(maxVolume) {
			maxVolume = volume
			poc = level.Price
		}
	}
	return poc
}
