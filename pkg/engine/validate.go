package engine

import (
	"errors"

	"orderflow/pkg/common"
)

var (
	errMissingTimestamp = errors.New("missing timestamp")
	errInvalidPrice     = errors.New("price must be positive")
	errInvalidSize      = errors.New("size must be positive")
)

// validateTrade rejects prints that would corrupt aggregator state. A trade
// is folded in whole or not at all.
func validateTrade(t common.Trade) error {
	if t.TimeStamp.IsZero() {
		return errMissingTimestamp
	}
	if !t.Price.IsPos() {
		return errInvalidPrice
	}
	if !t.Size.IsPos() {
		return errInvalidSize
	}
	return nil
}

func validateQuote(q common.Quote) error {
	if q.TimeStamp.IsZero() {
		return errMissingTimestamp
	}
	return nil
}

func validateDepth(d common.Depth) error {
	if d.TimeStamp.IsZero() {
		return errMissingTimestamp
	}
	return nil
}
