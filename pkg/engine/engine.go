package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"orderflow/pkg/bus"
	"orderflow/pkg/common"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/circular"
	"orderflow/pkg/utility/fixed"
)

const engineComponentName = "engine"

type Config struct {
	Symbol              string
	TickSize            fixed.Point
	BarDuration         time.Duration
	ImbalanceRatio      fixed.Point
	LargePrintThreshold fixed.Point
	AbsorptionWindow    time.Duration
	DomDepth            int
	HistoryCapacity     uint
	BarHistoryCapacity  uint
	AlertThrottle       time.Duration
}

func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:              symbol,
		TickSize:            fixed.FromFloat64(0.25),
		BarDuration:         time.Minute,
		ImbalanceRatio:      fixed.Three,
		LargePrintThreshold: fixed.FromInt(50, 0),
		AbsorptionWindow:    5 * time.Second,
		DomDepth:            10,
		HistoryCapacity:     500,
		BarHistoryCapacity:  100,
		AlertThrottle:       3 * time.Second,
	}
}

// Engine owns all analytics state for one symbol. Mutation happens through
// the router's dispatch goroutine; the RWMutex exists only so Snapshot and
// DrainTrades can be read from other goroutines (HTTP handlers, flushers).
type Engine struct {
	mu sync.RWMutex

	cfg    Config
	router *bus.Router

	dom       *DomBuilder
	footprint *FootprintAggregator
	cvd       *CvdCalculator
	tape      *TapeAnalyzer
	alerts    *AlertEvaluator

	history *circular.Buffer[common.Trade]

	lastQuote   common.Quote
	hasQuote    bool
	lastPrice   fixed.Point
	lastDom     *common.DomSnapshot
	lastMetrics common.TapeMetrics
	lastCvd     common.CvdPoint
}

func New(cfg Config, router *bus.Router) *Engine {
	return &Engine{
		cfg:       cfg,
		router:    router,
		dom:       NewDomBuilder(cfg.Symbol, cfg.DomDepth),
		footprint: NewFootprintAggregator(cfg.Symbol, cfg.BarDuration, cfg.TickSize, cfg.ImbalanceRatio, cfg.BarHistoryCapacity),
		cvd:       NewCvdCalculator(cfg.Symbol, cfg.BarDuration, cfg.HistoryCapacity),
		tape:      NewTapeAnalyzer(cfg.Symbol, cfg.TickSize, cfg.LargePrintThreshold, cfg.AbsorptionWindow),
		alerts:    NewAlertEvaluator(cfg.Symbol, cfg.AlertThrottle),
		history:   circular.NewBuffer[common.Trade](cfg.HistoryCapacity),
	}
}

// Attach registers the engine on the router's inbound events. Call once
// before Exec.
func (e *Engine) Attach() {
	e.router.OnTrade = e.OnTrade
	e.router.OnQuote = e.OnQuote
	e.router.OnDepth = e.OnDepth
	e.router.OnMetricsFlush = e.OnMetricsFlush
}

func (e *Engine) OnTrade(ctx context.Context, trade common.Trade) {
	if err := validateTrade(trade); err != nil {
		slog.Warn("malformed trade dropped", "error", err, "symbol", trade.Symbol)
		return
	}

	e.mu.Lock()

	enriched := e.enrich(trade)
	e.lastPrice = enriched.Price
	e.history.Push(enriched)

	current, completed := e.footprint.Ingest(enriched)
	point := e.cvd.Ingest(enriched)
	metrics := e.tape.Ingest(enriched)

	e.lastCvd = point
	e.lastMetrics = metrics

	fired := e.alerts.Evaluate(AlertContext{
		Trade:   enriched,
		Cvd:     point,
		Metrics: metrics,
		Dom:     e.lastDom,
	})

	e.mu.Unlock()

	e.post(bus.TradeUpdateEvent, enriched)
	if completed != nil {
		e.post(bus.FootprintUpdateEvent, common.FootprintUpdate{
			Kind: common.FootprintBarComplete,
			Bar:  *completed,
		})
	}
	e.post(bus.FootprintUpdateEvent, common.FootprintUpdate{
		Kind: common.FootprintBarUpdate,
		Bar:  current,
	})
	e.post(bus.CvdUpdateEvent, point)
	e.post(bus.TapeMetricsEvent, metrics)
	for _, alert := range fired {
		e.post(bus.AlertEvent, alert)
	}
}

func (e *Engine) OnQuote(ctx context.Context, quote common.Quote) {
	if err := validateQuote(quote); err != nil {
		slog.Warn("malformed quote dropped", "error", err, "symbol", quote.Symbol)
		return
	}

	e.mu.Lock()
	e.lastQuote = quote
	e.hasQuote = true
	e.mu.Unlock()
}

func (e *Engine) OnDepth(ctx context.Context, depth common.Depth) {
	if err := validateDepth(depth); err != nil {
		slog.Warn("malformed depth dropped", "error", err, "symbol", depth.Symbol)
		return
	}

	e.mu.Lock()
	snapshot := e.dom.Update(depth)
	e.lastDom = &snapshot
	e.mu.Unlock()

	e.post(bus.DomUpdateEvent, snapshot)
}

// OnMetricsFlush emits the periodic roll-up. The flush cadence is driven
// externally (a ticker live, the scheduler during replay), so the engine
// itself never consults the wall clock.
func (e *Engine) OnMetricsFlush(ctx context.Context, flush common.MetricsFlush) {
	e.mu.RLock()
	update := common.MetricsUpdate{
		Source:      engineComponentName,
		Symbol:      e.cfg.Symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   flush.TimeStamp,
		TapeSpeed:   e.tape.Speed(flush.TimeStamp),
		Absorption:  e.lastMetrics.Absorption,
	}
	if e.lastDom != nil {
		if balance, ok := e.lastDom.Balance(); ok {
			update.DomBalance = balance
			update.HasDomBalance = true
		}
	}
	e.mu.RUnlock()

	e.post(bus.MetricsUpdateEvent, update)
}

// enrich resolves the aggressor side and signed delta. A side supplied by
// the feed is trusted; only missing or unknown sides are inferred.
func (e *Engine) enrich(trade common.Trade) common.Trade {
	out := trade
	out.Source = engineComponentName
	if out.Symbol == "" {
		out.Symbol = e.cfg.Symbol
	}
	if out.ExecutionId == (utility.ExecutionID{}) {
		out.ExecutionId = utility.GetExecutionID()
	}
	if out.TraceID == 0 {
		out.TraceID = utility.CreateTraceID()
	}

	if out.Side != common.SideBuy && out.Side != common.SideSell {
		bid, ask := out.Bid, out.Ask
		if !out.HasBookContext() && e.hasQuote {
			bid, ask = e.lastQuote.Bid, e.lastQuote.Ask
		}
		out.Side = InferSide(out.Price, e.lastPrice, bid, ask)
	}
	out.Delta = SignedSize(out.Side, out.Size)
	return out
}

func (e *Engine) post(id bus.EventId, data interface{}) {
	if err := e.router.Post(id, data); err != nil {
		slog.Warn("engine post dropped", "error", err, "event_id", id)
	}
}

// SetAlertConfig, RemoveAlertConfig and AlertConfigs expose the evaluator
// to the control surface.
func (e *Engine) SetAlertConfig(cfg common.AlertConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts.SetConfig(cfg)
}

func (e *Engine) RemoveAlertConfig(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts.RemoveConfig(id)
}

func (e *Engine) AlertConfigs() []common.AlertConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.alerts.Configs()
}

// Snapshot is a deep copy of the derived state for late-joining clients.
type Snapshot struct {
	Symbol     string                 `json:"symbol"`
	Trades     []common.Trade         `json:"trades"`
	Dom        *common.DomSnapshot    `json:"dom,omitempty"`
	CurrentBar *common.FootprintBar   `json:"current_bar,omitempty"`
	Bars       []common.FootprintBar  `json:"bars"`
	Cvd        common.CvdPoint        `json:"cvd"`
	CvdHistory []common.CvdPoint      `json:"cvd_history"`
	Metrics    common.TapeMetrics     `json:"metrics"`
	Alerts     []common.AlertConfig   `json:"alert_configs"`
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		Symbol:     e.cfg.Symbol,
		Trades:     e.history.LastN(e.history.Size()),
		Bars:       e.footprint.CompletedBars(e.cfg.BarHistoryCapacity),
		Cvd:        e.lastCvd,
		CvdHistory: e.cvd.History(e.cfg.HistoryCapacity),
		Metrics:    e.lastMetrics,
		Alerts:     e.alerts.Configs(),
	}
	if bar, ok := e.footprint.CurrentBar(); ok {
		s.CurrentBar = &bar
	}
	if e.lastDom != nil {
		dom := *e.lastDom
		s.Dom = &dom
	}
	return s
}

// DrainTrades returns enriched trades pushed after the cursor, clipped to
// the history capacity, together with the new cursor. Persistence workers
// poll it without blocking the dispatch path.
func (e *Engine) DrainTrades(cursor uint64) ([]common.Trade, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.DrainSince(cursor), e.history.Cursor()
}

// ResetSession clears cumulative series and histories. The order book is
// market state, not session state, so it survives the reset.
func (e *Engine) ResetSession() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cvd.ResetSession()
	e.footprint.Reset()
	e.tape.Reset()
	e.history.Clear()
	e.lastCvd = common.CvdPoint{}
	e.lastMetrics = common.TapeMetrics{}
	e.lastPrice = fixed.Zero
}
