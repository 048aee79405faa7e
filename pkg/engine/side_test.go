package engine

import (
	"testing"

	"orderflow/pkg/common"
	"orderflow/pkg/utility/fixed"
)

func fp(v float64) fixed.Point {
	return fixed.FromFloat64(v)
}

func TestEngineSide_InferSide(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		prevPrice float64
		bestBid   float64
		bestAsk   float64
		want      common.Side
	}{
		{"AtAskIsBuy", 100.5, 0, 100, 100.5, common.SideBuy},
		{"AboveAskIsBuy", 101, 0, 100, 100.5, common.SideBuy},
		{"AtBidIsSell", 100, 0, 100, 100.5, common.SideSell},
		{"BelowBidIsSell", 99.5, 0, 100, 100.5, common.SideSell},
		{"InsideSpreadFallsToTickRule", 100.25, 100, 100, 100.5, common.SideBuy},
		{"UptickIsBuy", 101, 100, 0, 0, common.SideBuy},
		{"DowntickIsSell", 99, 100, 0, 0, common.SideSell},
		{"EqualTickFallsThrough", 100, 100, 0, 0, common.SideUnknown},
		{"NoContextIsUnknown", 100, 0, 0, 0, common.SideUnknown},
		{"OnlyBidKnownUsesTickRule", 99, 100, 100, 0, common.SideSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferSide(fp(tt.price), fp(tt.prevPrice), fp(tt.bestBid), fp(tt.bestAsk))
			if got != tt.want {
				t.Errorf("InferSide() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEngineSide_InferSideDeterministic(t *testing.T) {
	// Same inputs must always produce the same outcome, total ambiguity
	// included.
	for i := 0; i < 100; i++ {
		if got := InferSide(fp(100), fixed.Zero, fixed.Zero, fixed.Zero); got != common.SideUnknown {
			t.Fatalf("iteration %d: got %s, want unknown", i, got)
		}
	}
}

func TestEngineSide_SignedSize(t *testing.T) {
	size := fp(10)

	if got := SignedSize(common.SideBuy, size); !got.Eq(size) {
		t.Errorf("buy: got %s, want 10", got.String())
	}
	if got := SignedSize(common.SideSell, size); !got.Eq(size.Neg()) {
		t.Errorf("sell: got %s, want -10", got.String())
	}
	if got := SignedSize(common.SideUnknown, size); !got.IsZero() {
		t.Errorf("unknown: got %s, want 0", got.String())
	}
}
