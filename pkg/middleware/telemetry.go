package middleware

import (
	"context"

	"go.uber.org/zap"

	"orderflow/pkg/bus"
	"orderflow/pkg/common"
)

type Telemetry struct {
	logger *zap.Logger

	tradeEventCounter           int64
	quoteEventCounter           int64
	depthEventCounter           int64
	tradeUpdateEventCounter     int64
	domUpdateEventCounter       int64
	footprintUpdateEventCounter int64
	cvdUpdateEventCounter       int64
	tapeMetricsEventCounter     int64
	metricsUpdateEventCounter   int64
	alertEventCounter           int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithTrade(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		t.tradeEventCounter++
		handler(ctx, trade)
	}
}

func (t *Telemetry) WithQuote(handler bus.QuoteEventHandler) bus.QuoteEventHandler {
	return func(ctx context.Context, quote common.Quote) {
		t.quoteEventCounter++
		handler(ctx, quote)
	}
}

func (t *Telemetry) WithDepth(handler bus.DepthEventHandler) bus.DepthEventHandler {
	return func(ctx context.Context, depth common.Depth) {
		t.depthEventCounter++
		handler(ctx, depth)
	}
}

func (t *Telemetry) WithTradeUpdate(handler bus.TradeUpdateEventHandler) bus.TradeUpdateEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		t.tradeUpdateEventCounter++
		handler(ctx, trade)
	}
}

func (t *Telemetry) WithDomUpdate(handler bus.DomUpdateEventHandler) bus.DomUpdateEventHandler {
	return func(ctx context.Context, snapshot common.DomSnapshot) {
		t.domUpdateEventCounter++
		handler(ctx, snapshot)
	}
}

func (t *Telemetry) WithFootprintUpdate(handler bus.FootprintUpdateEventHandler) bus.FootprintUpdateEventHandler {
	return func(ctx context.Context, update common.FootprintUpdate) {
		t.footprintUpdateEventCounter++
		handler(ctx, update)
	}
}

func (t *Telemetry) WithCvdUpdate(handler bus.CvdUpdateEventHandler) bus.CvdUpdateEventHandler {
	return func(ctx context.Context, point common.CvdPoint) {
		t.cvdUpdateEventCounter++
		handler(ctx, point)
	}
}

func (t *Telemetry) WithTapeMetrics(handler bus.TapeMetricsEventHandler) bus.TapeMetricsEventHandler {
	return func(ctx context.Context, metrics common.TapeMetrics) {
		t.tapeMetricsEventCounter++
		handler(ctx, metrics)
	}
}

func (t *Telemetry) WithMetricsUpdate(handler bus.MetricsUpdateEventHandler) bus.MetricsUpdateEventHandler {
	return func(ctx context.Context, update common.MetricsUpdate) {
		t.metricsUpdateEventCounter++
		handler(ctx, update)
	}
}

func (t *Telemetry) WithAlert(handler bus.AlertEventHandler) bus.AlertEventHandler {
	return func(ctx context.Context, alert common.Alert) {
		t.alertEventCounter++
		handler(ctx, alert)
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("trade_events", t.tradeEventCounter),
		zap.Int64("quote_events", t.quoteEventCounter),
		zap.Int64("depth_events", t.depthEventCounter),
		zap.Int64("trade_update_events", t.tradeUpdateEventCounter),
		zap.Int64("dom_update_events", t.domUpdateEventCounter),
		zap.Int64("footprint_update_events", t.footprintUpdateEventCounter),
		zap.Int64("cvd_update_events", t.cvdUpdateEventCounter),
		zap.Int64("tape_metrics_events", t.tapeMetricsEventCounter),
		zap.Int64("metrics_update_events", t.metricsUpdateEventCounter),
		zap.Int64("alert_events", t.alertEventCounter))
}
