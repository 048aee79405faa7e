package engine

import (
	"orderflow/pkg/common"
	"orderflow/pkg/utility/fixed"
)

// InferSide classifies the aggressor of a trade. Book context wins over the
// tick rule; with no context at all the side stays unknown. Zero values mark
// absent inputs, real quotes and prints are never zero.
func InferSide(price, prevPrice, bestBid, bestAsk fixed.Point) common.Side {
	if !bestBid.IsZero() && !bestAsk.IsZero() {
		if price.Gte(bestAsk) {
			return common.SideBuy
		}
		if price.Lte(bestBid) {
			return common.SideSell
		}
	}

	if !prevPrice.IsZero() {
		if price.Gt(prevPrice) {
			return common.SideBuy
		}
		if price.Lt(prevPrice) {
			return common.SideSell
		}
	}

	return common.SideUnknown
}

// SignedSize returns the directional volume contribution of a trade,
// zero for an unresolved side.
func SignedSize(side common.Side, size fixed.Point) fixed.Point {
	switch side {
	case common.SideBuy:
		return size
	case common.SideSell:
		return size.Neg()
	default:
		return fixed.Zero
	}
}
