package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"orderflow/pkg/common"
)

var ErrCapacityReached = errors.New("event capacity reached")

type event struct {
	id   EventId
	data interface{}
}

// Router is the single dispatch loop of the process. All aggregator mutation
// happens on the goroutine running Exec, which gives every consumer a total
// order over events without shared locks.
type Router struct {
	events chan event

	OnTrade           TradeEventHandler
	OnQuote           QuoteEventHandler
	OnDepth           DepthEventHandler
	OnTradeUpdate     TradeUpdateEventHandler
	OnDomUpdate       DomUpdateEventHandler
	OnFootprintUpdate FootprintUpdateEventHandler
	OnCvdUpdate       CvdUpdateEventHandler
	OnTapeMetrics     TapeMetricsEventHandler
	OnMetricsUpdate   MetricsUpdateEventHandler
	OnAlert           AlertEventHandler
	OnMetricsFlush    MetricsFlushEventHandler

	startTime     time.Time
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(eventCapacity int) *Router {
	return &Router{
		events: make(chan event, eventCapacity),
	}
}

// Post enqueues an event without blocking. A full queue is reported to the
// caller, never waited out.
func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return ErrCapacityReached
	}
}

func (r *Router) Exec(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	r.startTime = time.Now()

	go func() {
		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchCount.Add(1)
				if err := r.dispatch(ctx, ev); err != nil {
					r.dispatchFails.Add(1)
					slog.Warn("dispatch failed", "error", err, "event_id", ev.id)
				}
			}
		}
	}()

	return done
}

// ExecLoop drains the queue and, when idle, pulls the next unit of work from
// doOnceCb. Used to drive the router from a data source at full speed.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) <-chan error {
	done := make(chan error, 1)
	r.startTime = time.Now()

	go func() {
		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchCount.Add(1)
				if err := r.dispatch(ctx, ev); err != nil {
					r.dispatchFails.Add(1)
					slog.Warn("dispatch failed", "error", err, "event_id", ev.id)
				}
			default:
				if err := doOnceCb(); err != nil {
					done <- err
					return
				}
			}
		}
	}()

	return done
}

func (r *Router) Statistics() Statistics {
	runTime := time.Since(r.startTime)
	s := Statistics{
		RunTime:       runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
	}
	if runTime > 0 {
		s.Throughput = float64(s.PostCount) / runTime.Seconds()
	}
	return s
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case TradeEvent:
		trade, ok := ev.data.(common.Trade)
		if !ok {
			return errors.New("invalid type assertion for trade event")
		}
		if r.OnTrade != nil {
			r.OnTrade(ctx, trade)
		}
	case QuoteEvent:
		quote, ok := ev.data.(common.Quote)
		if !ok {
			return errors.New("invalid type assertion for quote event")
		}
		if r.OnQuote != nil {
			r.OnQuote(ctx, quote)
		}
	case DepthEvent:
		depth, ok := ev.data.(common.Depth)
		if !ok {
			return errors.New("invalid type assertion for depth event")
		}
		if r.OnDepth != nil {
			r.OnDepth(ctx, depth)
		}
	case TradeUpdateEvent:
		trade, ok := ev.data.(common.Trade)
		if !ok {
			return errors.New("invalid type assertion for trade update event")
		}
		if r.OnTradeUpdate != nil {
			r.OnTradeUpdate(ctx, trade)
		}
	case DomUpdateEvent:
		snapshot, ok := ev.data.(common.DomSnapshot)
		if !ok {
			return errors.New("invalid type assertion for dom update event")
		}
		if r.OnDomUpdate != nil {
			r.OnDomUpdate(ctx, snapshot)
		}
	case FootprintUpdateEvent:
		update, ok := ev.data.(common.FootprintUpdate)
		if !ok {
			return errors.New("invalid type assertion for footprint update event")
		}
		if r.OnFootprintUpdate != nil {
			r.OnFootprintUpdate(ctx, update)
		}
	case CvdUpdateEvent:
		point, ok := ev.data.(common.CvdPoint)
		if !ok {
			return errors.New("invalid type assertion for cvd update event")
		}
		if r.OnCvdUpdate != nil {
			r.OnCvdUpdate(ctx, point)
		}
	case TapeMetricsEvent:
		metrics, ok := ev.data.(common.TapeMetrics)
		if !ok {
			return errors.New("invalid type assertion for tape metrics event")
		}
		if r.OnTapeMetrics != nil {
			r.OnTapeMetrics(ctx, metrics)
		}
	case MetricsUpdateEvent:
		update, ok := ev.data.(common.MetricsUpdate)
		if !ok {
			return errors.New("invalid type assertion for metrics update event")
		}
		if r.OnMetricsUpdate != nil {
			r.OnMetricsUpdate(ctx, update)
		}
	case AlertEvent:
		alert, ok := ev.data.(common.Alert)
		if !ok {
			return errors.New("invalid type assertion for alert event")
		}
		if r.OnAlert != nil {
			r.OnAlert(ctx, alert)
		}
	case MetricsFlushEvent:
		flush, ok := ev.data.(common.MetricsFlush)
		if !ok {
			return errors.New("invalid type assertion for metrics flush event")
		}
		if r.OnMetricsFlush != nil {
			r.OnMetricsFlush(ctx, flush)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
