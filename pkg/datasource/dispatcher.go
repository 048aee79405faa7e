package datasource

import (
	"orderflow/pkg/bus"
	"orderflow/pkg/common"
)

// Event is one unit of market data from a source. Exactly one field is set.
type Event struct {
	Trade *common.Trade
	Quote *common.Quote
	Depth *common.Depth
}

// MarketDataSource produces events in timestamp order until it returns an
// error (ErrEof from the concrete source when drained).
type MarketDataSource interface {
	GetNext() (Event, error)
}

// CreateDispatcher returns the doOnce callback for Router.ExecLoop: pull one
// event from the source and post it.
func CreateDispatcher(r *bus.Router, ds MarketDataSource) func() error {
	return func() error {
		ev, err := ds.GetNext()
		if err != nil {
			return err
		}

		switch {
		case ev.Trade != nil:
			return r.Post(bus.TradeEvent, *ev.Trade)
		case ev.Quote != nil:
			return r.Post(bus.QuoteEvent, *ev.Quote)
		case ev.Depth != nil:
			return r.Post(bus.DepthEvent, *ev.Depth)
		}
		return nil
	}
}

type TradeDataSource interface {
	GetNext() (common.Trade, error)
}

// FromTrades lifts a trade-only source into a MarketDataSource.
func FromTrades(ds TradeDataSource) MarketDataSource {
	return tradeSourceAdapter{ds}
}

type tradeSourceAdapter struct {
	ds TradeDataSource
}

func (a tradeSourceAdapter) GetNext() (Event, error) {
	trade, err := a.ds.GetNext()
	if err != nil {
		return Event{}, err
	}
	return Event{Trade: &trade}, nil
}
