package synthetic

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"orderflow/pkg/utility/fixed"
)

func testGenerator(steps int64) *TradeGenerator {
	return NewTradeGenerator(
		"ES",
		rand.New(rand.NewSource(42)),
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		fixed.FromFloat64(5000),
		fixed.FromFloat64(0.25),
		fixed.FromFloat64(0.05),
		fixed.FromFloat64(0.2),
		fixed.FromFloat64(0.000001),
		steps,
	)
}

func TestTradeGenerator_Stream(t *testing.T) {
	g := testGenerator(100)

	var last time.Time
	trades, depths := 0, 0

	for i := 0; i < 100; i++ {
		ev, err := g.GetNext()
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}

		switch {
		case ev.Trade != nil:
			trades++
			tr := ev.Trade
			if !tr.TimeStamp.After(last) {
				t.Fatalf("event %d: timestamp not monotonic", i)
			}
			last = tr.TimeStamp
			if !tr.HasBookContext() {
				t.Errorf("event %d: trade missing book context", i)
			}
			if tr.Bid.Gte(tr.Ask) {
				t.Errorf("event %d: crossed quote %s >= %s", i, tr.Bid.String(), tr.Ask.String())
			}
			if !tr.Size.IsPos() {
				t.Errorf("event %d: non-positive size %s", i, tr.Size.String())
			}
			if tr.Side != "buy" && tr.Side != "sell" {
				t.Errorf("event %d: side %q", i, tr.Side)
			}
		case ev.Depth != nil:
			depths++
			d := ev.Depth
			if len(d.Bids) != bookLevels || len(d.Asks) != bookLevels {
				t.Errorf("event %d: book sizes %d/%d", i, len(d.Bids), len(d.Asks))
			}
			if !d.TimeStamp.After(last) {
				t.Fatalf("event %d: depth timestamp not monotonic", i)
			}
			last = d.TimeStamp
		default:
			t.Fatalf("event %d: empty event", i)
		}
	}

	if depths != 10 {
		t.Errorf("depth snapshots = %d, want 10", depths)
	}
	if trades != 90 {
		t.Errorf("trades = %d, want 90", trades)
	}

	if _, err := g.GetNext(); !errors.Is(err, ErrEof) {
		t.Fatalf("after %d steps err = %v, want EOF", 100, err)
	}
}

func TestTradeGenerator_Deterministic(t *testing.T) {
	a, b := testGenerator(50), testGenerator(50)

	for i := 0; i < 50; i++ {
		evA, errA := a.GetNext()
		evB, errB := b.GetNext()
		if (errA == nil) != (errB == nil) {
			t.Fatalf("event %d: error mismatch %v vs %v", i, errA, errB)
		}
		if (evA.Trade == nil) != (evB.Trade == nil) {
			t.Fatalf("event %d: kind mismatch", i)
		}
		if evA.Trade != nil {
			if !evA.Trade.Price.Eq(evB.Trade.Price) || !evA.Trade.Size.Eq(evB.Trade.Size) || evA.Trade.Side != evB.Trade.Side {
				t.Fatalf("event %d: trade mismatch", i)
			}
		}
	}
}
