package middleware

import (
	"context"
	"log/slog"

	"orderflow/pkg/bus"
	"orderflow/pkg/common"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorTrades
	MonitorQuotes
	MonitorDepth
	MonitorTradeUpdates
	MonitorDomUpdates
	MonitorFootprints
	MonitorCvd
	MonitorTapeMetrics
	MonitorMetricsUpdates
	MonitorAlerts
)

type Monitor struct {
	flags MonitorFlags
}

func NewMonitor(flags MonitorFlags) *Monitor {
	return &Monitor{
		flags: flags,
	}
}

func (m *Monitor) WithTrade(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if m.flags&MonitorTrades != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "trade", trade)
		}
		handler(ctx, trade)
	}
}

func (m *Monitor) WithQuote(handler bus.QuoteEventHandler) bus.QuoteEventHandler {
	return func(ctx context.Context, quote common.Quote) {
		if m.flags&MonitorQuotes != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "quote", quote)
		}
		handler(ctx, quote)
	}
}

func (m *Monitor) WithDepth(handler bus.DepthEventHandler) bus.DepthEventHandler {
	return func(ctx context.Context, depth common.Depth) {
		if m.flags&MonitorDepth != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "depth", depth)
		}
		handler(ctx, depth)
	}
}

func (m *Monitor) WithTradeUpdate(handler bus.TradeUpdateEventHandler) bus.TradeUpdateEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if m.flags&MonitorTradeUpdates != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "trade_update", trade)
		}
		handler(ctx, trade)
	}
}

func (m *Monitor) WithDomUpdate(handler bus.DomUpdateEventHandler) bus.DomUpdateEventHandler {
	return func(ctx context.Context, snapshot common.DomSnapshot) {
		if m.flags&MonitorDomUpdates != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "dom_update", snapshot)
		}
		handler(ctx, snapshot)
	}
}

func (m *Monitor) WithFootprintUpdate(handler bus.FootprintUpdateEventHandler) bus.FootprintUpdateEventHandler {
	return func(ctx context.Context, update common.FootprintUpdate) {
		if m.flags&MonitorFootprints != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "footprint_update", update)
		}
		handler(ctx, update)
	}
}

func (m *Monitor) WithCvdUpdate(handler bus.CvdUpdateEventHandler) bus.CvdUpdateEventHandler {
	return func(ctx context.Context, point common.CvdPoint) {
		if m.flags&MonitorCvd != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "cvd_update", point)
		}
		handler(ctx, point)
	}
}

func (m *Monitor) WithTapeMetrics(handler bus.TapeMetricsEventHandler) bus.TapeMetricsEventHandler {
	return func(ctx context.Context, metrics common.TapeMetrics) {
		if m.flags&MonitorTapeMetrics != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "tape_metrics", metrics)
		}
		handler(ctx, metrics)
	}
}

func (m *Monitor) WithMetricsUpdate(handler bus.MetricsUpdateEventHandler) bus.MetricsUpdateEventHandler {
	return func(ctx context.Context, update common.MetricsUpdate) {
		if m.flags&MonitorMetricsUpdates != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "metrics_update", update)
		}
		handler(ctx, update)
	}
}

func (m *Monitor) WithAlert(handler bus.AlertEventHandler) bus.AlertEventHandler {
	return func(ctx context.Context, alert common.Alert) {
		if m.flags&MonitorAlerts != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "alert", alert)
		}
		handler(ctx, alert)
	}
}
