package datasource

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"orderflow/pkg/bus"
)

// maxFeedGap caps the pause between two live-paced events.
const maxFeedGap = time.Second

// Runner paces a MarketDataSource in real time and posts its events to the
// router. It satisfies the control surface's start/stop contract; Start after
// Stop begins a fresh source.
type Runner struct {
	router    *bus.Router
	newSource func() (MarketDataSource, error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

func NewRunner(router *bus.Router, newSource func() (MarketDataSource, error)) *Runner {
	return &Runner{
		router:    router,
		newSource: newSource,
	}
}

func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("feed already running")
	}

	source, err := r.newSource()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.running = true

	go r.loop(ctx, source)
	return nil
}

func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.running = false
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) loop(ctx context.Context, source MarketDataSource) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	var prev time.Time

	for {
		ev, err := source.GetNext()
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Info("feed drained", "reason", err)
			}
			return
		}

		ts := eventTime(ev)
		if !prev.IsZero() && ts.After(prev) {
			gap := ts.Sub(prev)
			if gap > maxFeedGap {
				gap = maxFeedGap
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(gap):
			}
		}
		prev = ts

		if err := r.post(ev); err != nil {
			slog.Warn("feed event dropped", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (r *Runner) post(ev Event) error {
	switch {
	case ev.Trade != nil:
		return r.router.Post(bus.TradeEvent, *ev.Trade)
	case ev.Quote != nil:
		return r.router.Post(bus.QuoteEvent, *ev.Quote)
	case ev.Depth != nil:
		return r.router.Post(bus.DepthEvent, *ev.Depth)
	}
	return nil
}

func eventTime(ev Event) time.Time {
	switch {
	case ev.Trade != nil:
		return ev.Trade.TimeStamp
	case ev.Quote != nil:
		return ev.Quote.TimeStamp
	case ev.Depth != nil:
		return ev.Depth.TimeStamp
	}
	return time.Time{}
}
