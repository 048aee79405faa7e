package engine

import (
	"testing"
	"time"

	"orderflow/pkg/common"
	"orderflow/pkg/utility/fixed"
)

func alertCtx(ts time.Time, size float64) AlertContext {
	return AlertContext{
		Trade: common.Trade{
			TimeStamp: ts,
			Price:     fp(100),
			Size:      fixed.FromFloat64(size),
			Side:      common.SideBuy,
		},
	}
}

func TestAlertEvaluator_LargePrint(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{
		ID:        "lp-1",
		Type:      common.AlertLargePrint,
		Threshold: fixed.FromInt(50, 0),
		Enabled:   true,
	})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if got := e.Evaluate(alertCtx(base, 49)); len(got) != 0 {
		t.Fatalf("below threshold fired %d alerts", len(got))
	}
	got := e.Evaluate(alertCtx(base.Add(time.Second), 50))
	if len(got) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(got))
	}
	a := got[0]
	if a.Type != common.AlertLargePrint || a.Severity != common.SeverityInfo {
		t.Errorf("unexpected alert %+v", a)
	}
	if a.ID == "" || a.Symbol != "ES" {
		t.Errorf("envelope not populated: %+v", a)
	}
}

func TestAlertEvaluator_Throttle(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{
		ID:        "lp-1",
		Type:      common.AlertLargePrint,
		Threshold: fixed.FromInt(50, 0),
		Enabled:   true,
	})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if got := e.Evaluate(alertCtx(base, 60)); len(got) != 1 {
		t.Fatalf("first qualifying event fired %d", len(got))
	}
	// Within the window the second event is dropped, not queued.
	if got := e.Evaluate(alertCtx(base.Add(2*time.Second), 80)); len(got) != 0 {
		t.Fatalf("throttled event fired %d", len(got))
	}
	if got := e.Evaluate(alertCtx(base.Add(3*time.Second), 80)); len(got) != 1 {
		t.Fatalf("post-window event fired %d", len(got))
	}
}

func TestAlertEvaluator_UpdateKeepsThrottleState(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{
		ID:        "lp-1",
		Type:      common.AlertLargePrint,
		Threshold: fixed.FromInt(50, 0),
		Enabled:   true,
	})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := e.Evaluate(alertCtx(base, 60)); len(got) != 1 {
		t.Fatalf("setup fire failed, got %d", len(got))
	}

	// Lowering the threshold mid-window must not reset the throttle.
	e.SetConfig(common.AlertConfig{
		ID:        "lp-1",
		Type:      common.AlertLargePrint,
		Threshold: fixed.FromInt(10, 0),
		Enabled:   true,
	})
	if got := e.Evaluate(alertCtx(base.Add(time.Second), 20)); len(got) != 0 {
		t.Fatalf("updated config bypassed throttle, fired %d", len(got))
	}
}

func TestAlertEvaluator_RemoveIdempotent(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{ID: "lp-1", Type: common.AlertLargePrint, Threshold: fixed.One, Enabled: true})

	e.RemoveConfig("lp-1")
	e.RemoveConfig("lp-1")
	e.RemoveConfig("never-existed")

	if got := e.Evaluate(alertCtx(time.Now(), 100)); len(got) != 0 {
		t.Fatalf("removed config still fired %d", len(got))
	}
	if len(e.Configs()) != 0 {
		t.Fatalf("configs not empty: %v", e.Configs())
	}
}

func TestAlertEvaluator_Disabled(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{ID: "lp-1", Type: common.AlertLargePrint, Threshold: fixed.One, Enabled: false})

	if got := e.Evaluate(alertCtx(time.Now(), 100)); len(got) != 0 {
		t.Fatalf("disabled config fired %d", len(got))
	}
}

func TestAlertEvaluator_DeltaThreshold(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{
		ID:        "dt-1",
		Type:      common.AlertDeltaThreshold,
		Threshold: fixed.FromInt(1000, 0),
		Enabled:   true,
	})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ctx := alertCtx(base, 1)
	ctx.Cvd.Cumulative = fixed.FromInt(-1200, 0)
	got := e.Evaluate(ctx)
	if len(got) != 1 {
		t.Fatalf("negative delta beyond threshold fired %d", len(got))
	}
	if got[0].Severity != common.SeverityWarning {
		t.Errorf("severity = %s", got[0].Severity)
	}
}

func TestAlertEvaluator_TapeSpeed(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{
		ID:        "sp-1",
		Type:      common.AlertTapeSpeed,
		Threshold: fixed.FromInt(30, 0),
		Enabled:   true,
	})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ctx := alertCtx(base, 1)
	ctx.Metrics.Speed = 29
	if got := e.Evaluate(ctx); len(got) != 0 {
		t.Fatalf("below speed threshold fired %d", len(got))
	}
	ctx = alertCtx(base.Add(time.Second), 1)
	ctx.Metrics.Speed = 30
	if got := e.Evaluate(ctx); len(got) != 1 {
		t.Fatalf("at speed threshold fired %d", len(got))
	}
}

func TestAlertEvaluator_DomImbalance(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{
		ID:        "dom-1",
		Type:      common.AlertDomImbalance,
		Threshold: fixed.Three,
		Enabled:   true,
	})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ctx := alertCtx(base, 1)
	ctx.Dom = &common.DomSnapshot{
		Bids: []common.DomLevel{{Price: fp(100), Size: fixed.FromInt(90, 0)}},
		Asks: []common.DomLevel{{Price: fp(100.5), Size: fixed.FromInt(30, 0)}},
	}
	if got := e.Evaluate(ctx); len(got) != 1 {
		t.Fatalf("3:1 book fired %d alerts", len(got))
	}

	// One-sided book is not applicable rather than an error.
	ctx = alertCtx(base.Add(5*time.Second), 1)
	ctx.Dom = &common.DomSnapshot{
		Bids: []common.DomLevel{{Price: fp(100), Size: fixed.FromInt(90, 0)}},
	}
	if got := e.Evaluate(ctx); len(got) != 0 {
		t.Fatalf("one-sided book fired %d alerts", len(got))
	}

	ctx = alertCtx(base.Add(10*time.Second), 1)
	ctx.Dom = nil
	if got := e.Evaluate(ctx); len(got) != 0 {
		t.Fatalf("nil snapshot fired %d alerts", len(got))
	}
}

func TestAlertEvaluator_IndependentTypeThrottles(t *testing.T) {
	e := NewAlertEvaluator("ES", 3*time.Second)
	e.SetConfig(common.AlertConfig{ID: "lp-1", Type: common.AlertLargePrint, Threshold: fixed.FromInt(50, 0), Enabled: true})
	e.SetConfig(common.AlertConfig{ID: "sp-1", Type: common.AlertTapeSpeed, Threshold: fixed.FromInt(30, 0), Enabled: true})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ctx := alertCtx(base, 60)
	ctx.Metrics.Speed = 40
	got := e.Evaluate(ctx)
	if len(got) != 2 {
		t.Fatalf("expected both types to fire, got %d", len(got))
	}
	types := map[common.AlertType]bool{}
	for _, a := range got {
		types[a.Type] = true
	}
	if !types[common.AlertLargePrint] || !types[common.AlertTapeSpeed] {
		t.Errorf("fired types: %v", types)
	}
}
