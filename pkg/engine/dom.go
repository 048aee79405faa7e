package engine

import (
	"sort"

	"orderflow/pkg/common"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

const domBuilderComponentName = "engine.dom"

// largeSizeMultiple scales the mean resting size into the large-level
// threshold.
var largeSizeMultiple = fixed.Three

// DomBuilder maintains the current bid/ask book from depth snapshots and
// produces a ranked, change-annotated view on each update.
type DomBuilder struct {
	symbol string
	depth  int

	prevBids map[string]common.PriceLevel
	prevAsks map[string]common.PriceLevel
}

func NewDomBuilder(symbol string, depth int) *DomBuilder {
	return &DomBuilder{
		symbol:   symbol,
		depth:    depth,
		prevBids: make(map[string]common.PriceLevel),
		prevAsks: make(map[string]common.PriceLevel),
	}
}

// Update replaces the book with the given snapshot and returns the annotated
// view. An empty update yields a valid snapshot with nil best bid/ask/spread.
func (b *DomBuilder) Update(depth common.Depth) common.DomSnapshot {
	newBids := collectLevels(depth.Bids)
	newAsks := collectLevels(depth.Asks)

	threshold := largeThreshold(newBids, newAsks)

	snapshot := common.DomSnapshot{
		Source:         domBuilderComponentName,
		Symbol:         b.symbol,
		ExecutionId:    utility.GetExecutionID(),
		TraceID:        utility.CreateTraceID(),
		TimeStamp:      depth.TimeStamp,
		Bids:           b.rankSide(newBids, b.prevBids, threshold, true),
		Asks:           b.rankSide(newAsks, b.prevAsks, threshold, false),
		RemovedBids:    removedLevels(newBids, b.prevBids),
		RemovedAsks:    removedLevels(newAsks, b.prevAsks),
		LargeThreshold: threshold,
	}

	if len(snapshot.Bids) > 0 {
		best := snapshot.Bids[0].Price
		snapshot.BestBid = &best
	}
	if len(snapshot.Asks) > 0 {
		best := snapshot.Asks[0].Price
		snapshot.BestAsk = &best
	}
	if snapshot.BestBid != nil && snapshot.BestAsk != nil {
		spread := snapshot.BestAsk.Sub(*snapshot.BestBid)
		snapshot.Spread = &spread
	}

	b.prevBids = newBids
	b.prevAsks = newAsks

	return snapshot
}

// collectLevels canonicalizes the side into a price-keyed map. Zero-size
// entries are removals and malformed levels are skipped, not errors.
func collectLevels(levels []common.PriceLevel) map[string]common.PriceLevel {
	out := make(map[string]common.PriceLevel, len(levels))
	for _, lvl := range levels {
		if !lvl.Price.IsPos() || !lvl.Size.IsPos() {
			continue
		}
		// Numerically equal decimals can carry different exponents, so the
		// canonical string form keys the map, never the decimal itself.
		key := lvl.Price.String()
		if existing, ok := out[key]; ok {
			lvl.Size = lvl.Size.Add(existing.Size)
		}
		out[key] = lvl
	}
	return out
}

func (b *DomBuilder) rankSide(current, previous map[string]common.PriceLevel, threshold fixed.Point, descending bool) []common.DomLevel {
	ranked := make([]common.DomLevel, 0, len(current))
	for key, lvl := range current {
		change := common.LevelAdded
		if prev, ok := previous[key]; ok {
			if prev.Size.Eq(lvl.Size) {
				change = common.LevelUnchanged
			} else {
				change = common.LevelModified
			}
		}
		ranked = append(ranked, common.DomLevel{
			Price:  lvl.Price,
			Size:   lvl.Size,
			Change: change,
			Large:  !threshold.IsZero() && lvl.Size.Gte(threshold),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if descending {
			return ranked[i].Price.Gt(ranked[j].Price)
		}
		return ranked[i].Price.Lt(ranked[j].Price)
	})

	if b.depth > 0 && len(ranked) > b.depth {
		ranked = ranked[:b.depth]
	}
	return ranked
}

func removedLevels(current, previous map[string]common.PriceLevel) []common.DomLevel {
	var removed []common.DomLevel
	for key, prev := range previous {
		if _, ok := current[key]; ok {
			continue
		}
		removed = append(removed, common.DomLevel{
			Price:  prev.Price,
			Size:   prev.Size,
			Change: common.LevelRemoved,
		})
	}
	sort.Slice(removed, func(i, j int) bool {
		return removed[i].Price.Lt(removed[j].Price)
	})
	return removed
}

func largeThreshold(bids, asks map[string]common.PriceLevel) fixed.Point {
	sizes := make([]fixed.Point, 0, len(bids)+len(asks))
	for _, lvl := range bids {
		sizes = append(sizes, lvl.Size)
	}
	for _, lvl := range asks {
		sizes = append(sizes, lvl.Size)
	}
	if len(sizes) == 0 {
		return fixed.Zero
	}
	return fixed.Mean(sizes).Mul(largeSizeMultiple)
}
