package engine

import (
	"testing"
	"time"

	"orderflow/pkg/common"
)

func newTestTape() *TapeAnalyzer {
	return NewTapeAnalyzer("ESZ5", fp(0.25), fp(50), 5*time.Second)
}

func TestEngineTape_Speed(t *testing.T) {
	a := newTestTape()

	for i := 0; i < 5; i++ {
		a.Ingest(trade(barStart.Add(time.Duration(i)*100*time.Millisecond), 100, 1, common.SideBuy))
	}

	// Two seconds later only the new print is inside the speed window.
	metrics := a.Ingest(trade(barStart.Add(2*time.Second), 100, 1, common.SideBuy))
	if metrics.Speed != 1 {
		t.Errorf("Speed = %d, want 1", metrics.Speed)
	}

	metrics = a.Ingest(trade(barStart.Add(2*time.Second+100*time.Millisecond), 100, 1, common.SideBuy))
	if metrics.Speed != 2 {
		t.Errorf("Speed = %d, want 2", metrics.Speed)
	}
}

func TestEngineTape_LargePrint(t *testing.T) {
	a := newTestTape()

	if m := a.Ingest(trade(barStart, 100, 49, common.SideBuy)); m.LargePrint {
		t.Error("49 lots under a threshold of 50 is not large")
	}
	if m := a.Ingest(trade(barStart.Add(time.Second), 100, 50, common.SideBuy)); !m.LargePrint {
		t.Error("50 lots at a threshold of 50 is large")
	}
}

func TestEngineTape_Absorption(t *testing.T) {
	a := newTestTape()

	// 15 sells of 20 lots inside half a tick: 300 total volume against a
	// 250 floor, range at zero.
	var metrics common.TapeMetrics
	for i := 0; i < 15; i++ {
		metrics = a.Ingest(trade(barStart.Add(time.Duration(i)*100*time.Millisecond), 100, 20, common.SideSell))
	}

	if metrics.Absorption == nil {
		t.Fatal("expected absorption to fire")
	}
	if !metrics.Absorption.Volume.Eq(fp(300)) {
		t.Errorf("Volume = %s, want 300", metrics.Absorption.Volume.String())
	}
	if !metrics.Absorption.PriceRange.IsZero() {
		t.Errorf("PriceRange = %s, want 0", metrics.Absorption.PriceRange.String())
	}
	if metrics.Absorption.Bias != common.SideSell {
		t.Errorf("Bias = %s, want sell", metrics.Absorption.Bias)
	}
}

func TestEngineTape_NoAbsorptionOnWideRange(t *testing.T) {
	a := newTestTape()

	var metrics common.TapeMetrics
	for i := 0; i < 15; i++ {
		// Prices drift a full point, far beyond two ticks.
		metrics = a.Ingest(trade(barStart.Add(time.Duration(i)*100*time.Millisecond), 100+float64(i)*0.1, 20, common.SideSell))
	}

	if metrics.Absorption != nil {
		t.Error("absorption must not fire across a wide range")
	}
}

func TestEngineTape_NoAbsorptionBelowMinTrades(t *testing.T) {
	a := newTestTape()

	var metrics common.TapeMetrics
	for i := 0; i < 9; i++ {
		metrics = a.Ingest(trade(barStart.Add(time.Duration(i)*100*time.Millisecond), 100, 100, common.SideBuy))
	}

	if metrics.Absorption != nil {
		t.Error("absorption needs at least 10 buffered prints")
	}
}

func TestEngineTape_WindowTrimmed(t *testing.T) {
	a := newTestTape()

	for i := 0; i < 50; i++ {
		a.Ingest(trade(barStart.Add(time.Duration(i)*time.Second), 100, 1, common.SideBuy))
	}

	// Only prints within the 5s absorption window survive.
	if len(a.window) > 6 {
		t.Errorf("window length = %d, want trimmed to the absorption window", len(a.window))
	}
}
