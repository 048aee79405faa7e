package middleware

import (
	"context"

	"orderflow/pkg/common"
)

//goland:noinspection ALL
var (
	NoopTradeHdl       = func(context.Context, common.Trade) {}
	NoopQuoteHdl       = func(context.Context, common.Quote) {}
	NoopDepthHdl       = func(context.Context, common.Depth) {}
	NoopTradeUpdHdl    = func(context.Context, common.Trade) {}
	NoopDomUpdHdl      = func(context.Context, common.DomSnapshot) {}
	NoopFootprintHdl   = func(context.Context, common.FootprintUpdate) {}
	NoopCvdHdl         = func(context.Context, common.CvdPoint) {}
	NoopTapeMetricsHdl = func(context.Context, common.TapeMetrics) {}
	NoopMetricsUpdHdl  = func(context.Context, common.MetricsUpdate) {}
	NoopAlertHdl       = func(context.Context, common.Alert) {}
)
