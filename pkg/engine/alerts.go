package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"orderflow/pkg/common"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

const alertComponentName = "engine.alerts"

// AlertContext bundles the latest outputs of the aggregators for one
// evaluation pass.
type AlertContext struct {
	Trade   common.Trade
	Cvd     common.CvdPoint
	Metrics common.TapeMetrics
	Dom     *common.DomSnapshot
}

// AlertEvaluator runs stateful threshold checks over aggregator outputs.
// Throttle state is keyed by alert type: within the window a second
// qualifying event of the same type is silently dropped, not queued.
type AlertEvaluator struct {
	symbol   string
	throttle time.Duration

	configs   map[string]common.AlertConfig
	lastFired map[common.AlertType]time.Time
}

func NewAlertEvaluator(symbol string, throttle time.Duration) *AlertEvaluator {
	return &AlertEvaluator{
		symbol:    symbol,
		throttle:  throttle,
		configs:   make(map[string]common.AlertConfig),
		lastFired: make(map[common.AlertType]time.Time),
	}
}

// SetConfig adds or replaces a config keyed by its ID. Replacing a threshold
// does not reset the throttle state for the type.
func (e *AlertEvaluator) SetConfig(cfg common.AlertConfig) {
	e.configs[cfg.ID] = cfg
}

// RemoveConfig is idempotent; removing an unknown ID is a no-op.
func (e *AlertEvaluator) RemoveConfig(id string) {
	delete(e.configs, id)
}

func (e *AlertEvaluator) Configs() []common.AlertConfig {
	out := make([]common.AlertConfig, 0, len(e.configs))
	for _, cfg := range e.configs {
		out = append(out, cfg)
	}
	return out
}

// Evaluate runs every enabled config against the context and returns the
// newly fired alerts. The context's trade timestamp drives the throttle
// clock, so replay throttles exactly the way live did.
func (e *AlertEvaluator) Evaluate(ctx AlertContext) []common.Alert {
	var fired []common.Alert

	now := ctx.Trade.TimeStamp

	for _, cfg := range e.configs {
		if !cfg.Enabled {
			continue
		}

		var alert *common.Alert
		switch cfg.Type {
		case common.AlertLargePrint:
			alert = e.checkLargePrint(cfg, ctx)
		case common.AlertDeltaThreshold:
			alert = e.checkDeltaThreshold(cfg, ctx)
		case common.AlertTapeSpeed:
			alert = e.checkTapeSpeed(cfg, ctx)
		case common.AlertDomImbalance:
			alert = e.checkDomImbalance(cfg, ctx)
		}
		if alert == nil {
			continue
		}
		if !e.allow(cfg.Type, now) {
			continue
		}

		alert.Source = alertComponentName
		alert.Symbol = e.symbol
		alert.ExecutionId = utility.GetExecutionID()
		alert.TraceID = utility.CreateTraceID()
		alert.TimeStamp = now
		alert.ID = uuid.NewString()
		fired = append(fired, *alert)
	}

	return fired
}

func (e *AlertEvaluator) allow(alertType common.AlertType, now time.Time) bool {
	if last, ok := e.lastFired[alertType]; ok && now.Sub(last) < e.throttle {
		return false
	}
	e.lastFired[alertType] = now
	return true
}

func (e *AlertEvaluator) checkLargePrint(cfg common.AlertConfig, ctx AlertContext) *common.Alert {
	if ctx.Trade.Size.IsZero() || ctx.Trade.Size.Lt(cfg.Threshold) {
		return nil
	}
	return &common.Alert{
		Type:     common.AlertLargePrint,
		Severity: common.SeverityInfo,
		Message:  fmt.Sprintf("large print %s @ %s", ctx.Trade.Size.String(), ctx.Trade.Price.String()),
		Payload: map[string]any{
			"price": ctx.Trade.Price.String(),
			"size":  ctx.Trade.Size.String(),
			"side":  ctx.Trade.Side,
		},
	}
}

func (e *AlertEvaluator) checkDeltaThreshold(cfg common.AlertConfig, ctx AlertContext) *common.Alert {
	if ctx.Cvd.Cumulative.Abs().Lt(cfg.Threshold) {
		return nil
	}
	return &common.Alert{
		Type:     common.AlertDeltaThreshold,
		Severity: common.SeverityWarning,
		Message:  fmt.Sprintf("cumulative delta %s crossed %s", ctx.Cvd.Cumulative.String(), cfg.Threshold.String()),
		Payload: map[string]any{
			"cumulative": ctx.Cvd.Cumulative.String(),
			"bar_delta":  ctx.Cvd.BarDelta.String(),
		},
	}
}

func (e *AlertEvaluator) checkTapeSpeed(cfg common.AlertConfig, ctx AlertContext) *common.Alert {
	speed := fixed.FromInt(ctx.Metrics.Speed, 0)
	if speed.IsZero() || speed.Lt(cfg.Threshold) {
		return nil
	}
	return &common.Alert{
		Type:     common.AlertTapeSpeed,
		Severity: common.SeverityInfo,
		Message:  fmt.Sprintf("tape speed %d prints/s", ctx.Metrics.Speed),
		Payload: map[string]any{
			"speed": ctx.Metrics.Speed,
		},
	}
}

// checkDomImbalance only applies when both best sizes are non-zero; a
// one-sided book is "not applicable", never a division fault.
func (e *AlertEvaluator) checkDomImbalance(cfg common.AlertConfig, ctx AlertContext) *common.Alert {
	if ctx.Dom == nil {
		return nil
	}
	ratio, ok := ctx.Dom.Balance()
	if !ok || ratio.Lt(cfg.Threshold) {
		return nil
	}
	return &common.Alert{
		Type:     common.AlertDomImbalance,
		Severity: common.SeverityWarning,
		Message:  fmt.Sprintf("book imbalance ratio %s", ratio.String()),
		Payload: map[string]any{
			"ratio": ratio.String(),
		},
	}
}
