package historical

import (
	"fmt"
	"time"

	"orderflow/pkg/common"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

const (
	invalidIndex             = -1
	tradeReaderComponentName = "datasource.historical.reader"
)

// BinaryTrade is the fixed-size archive record. Side is 1 for buy, -1 for
// sell, 0 for unknown. Bid and Ask are 0 when the feed had no book context.
type BinaryTrade struct {
	TimeStamp int64
	Price     float64
	Size      float64
	Bid       float64
	Ask       float64
	Side      int64
}

func (b BinaryTrade) ToTrade(trade *common.Trade) {
	trade.TimeStamp = time.Unix(0, b.TimeStamp)
	trade.Price = fixed.FromFloat64(b.Price)
	trade.Size = fixed.FromFloat64(b.Size)
	if b.Bid != 0 {
		trade.Bid = fixed.FromFloat64(b.Bid)
	}
	if b.Ask != 0 {
		trade.Ask = fixed.FromFloat64(b.Ask)
	}
	switch {
	case b.Side > 0:
		trade.Side = common.SideBuy
	case b.Side < 0:
		trade.Side = common.SideSell
	default:
		trade.Side = common.SideUnknown
	}
}

// TradeReader walks an archive over a time range. The start index is found
// by binary search over the timestamp-ordered records.
type TradeReader struct {
	source *Source[BinaryTrade]

	symbol string
	from   int64
	to     int64
	idx    int64
}

func NewTradeReader(source *Source[BinaryTrade], symbol string, from, to time.Time) *TradeReader {
	return &TradeReader{
		source: source,
		symbol: symbol,
		from:   from.UnixNano(),
		to:     to.UnixNano(),
		idx:    invalidIndex,
	}
}

func (t *TradeReader) GetNext() (common.Trade, error) {

	var trade common.Trade
	var binTrade BinaryTrade

	if t.idx == invalidIndex {
		if err := t.lookupStartIndex(); err != nil {
			return trade, err
		}
	}

	if err := t.source.Read(t.idx, &binTrade); err != nil {
		return trade, fmt.Errorf("error reading entry at index %d: %w", t.idx, err)
	}
	t.idx++

	if binTrade.TimeStamp < t.from {
		return trade, fmt.Errorf("timestamp is not from the proposed range")
	}

	if binTrade.TimeStamp > t.to {
		return trade, ErrEof
	}

	binTrade.ToTrade(&trade)

	trade.Source = tradeReaderComponentName
	trade.Symbol = t.symbol
	trade.ExecutionId = utility.GetExecutionID()
	trade.TraceID = utility.CreateTraceID()

	return trade, nil
}

func (t *TradeReader) lookupStartIndex() error {
	entryCount, err := t.source.EntryCount()
	if err != nil {
		return fmt.Errorf("error getting entry count: %w", err)
	}

	if entryCount == 0 {
		return fmt.Errorf("entry count is zero")
	}

	var entry BinaryTrade

	low := int64(0)
	high := entryCount - 1

	for low <= high {
		mid := (low + high) / 2

		if err := t.source.Read(mid, &entry); err != nil {
			return fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.TimeStamp < t.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if low >= entryCount {
		return fmt.Errorf("no entry found with timestamp >= from")
	}

	t.idx = low
	return nil
}
