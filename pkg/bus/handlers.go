package bus

import (
	"context"

	"orderflow/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type TradeEventHandler EventHandler[common.Trade]
type QuoteEventHandler EventHandler[common.Quote]
type DepthEventHandler EventHandler[common.Depth]
type TradeUpdateEventHandler EventHandler[common.Trade]
type DomUpdateEventHandler EventHandler[common.DomSnapshot]
type FootprintUpdateEventHandler EventHandler[common.FootprintUpdate]
type CvdUpdateEventHandler EventHandler[common.CvdPoint]
type TapeMetricsEventHandler EventHandler[common.TapeMetrics]
type MetricsUpdateEventHandler EventHandler[common.MetricsUpdate]
type AlertEventHandler EventHandler[common.Alert]
type MetricsFlushEventHandler EventHandler[common.MetricsFlush]

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
