package duckdb

import (
	"context"
	"log/slog"
	"time"

	"orderflow/pkg/common"
)

// TradeSource is the drain side of the engine's history buffer.
type TradeSource interface {
	DrainTrades(cursor uint64) ([]common.Trade, uint64)
}

type TradeWriter interface {
	WriteTrades(ctx context.Context, symbol string, trades []common.Trade) error
}

// Flusher periodically drains enriched trades from the engine and persists
// them in batches. It polls off the dispatch path; a slow disk delays
// persistence, never ingestion.
type Flusher struct {
	symbol   string
	interval time.Duration
	source   TradeSource
	writer   TradeWriter

	cursor uint64
}

func NewFlusher(symbol string, interval time.Duration, source TradeSource, writer TradeWriter) *Flusher {
	return &Flusher{
		symbol:   symbol,
		interval: interval,
		source:   source,
		writer:   writer,
	}
}

// Run blocks until the context is cancelled. A final flush runs on shutdown
// so trades arriving after the last tick are not lost.
func (f *Flusher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			f.flush(ctx)
		}
	}
}

func (f *Flusher) flush(ctx context.Context) {
	trades, cursor := f.source.DrainTrades(f.cursor)
	if len(trades) == 0 {
		f.cursor = cursor
		return
	}

	if err := f.writer.WriteTrades(ctx, f.symbol, trades); err != nil {
		slog.Error("trade flush failed", "error", err, "count", len(trades))
		return
	}
	f.cursor = cursor
}
