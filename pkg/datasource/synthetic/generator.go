package synthetic

import (
	"errors"
	"math/rand"
	"time"

	"orderflow/pkg/common"
	"orderflow/pkg/datasource"
	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

const (
	tradeGeneratorComponentName = "datasource.synthetic.generator"

	// One depth snapshot per this many trades.
	depthEvery = 10

	bookLevels = 5
)

var (
	pointFive = fixed.FromInt64(5, 1)
	ErrEof    = errors.New("EOF")
)

// TradeGenerator produces a synthetic order flow: a GBM price path, trades
// hitting the bid or lifting the ask with short-lived directional momentum,
// and periodic level-2 snapshots around the current inside market.
type TradeGenerator struct {
	symbol string
	rng    *rand.Rand

	startTime time.Time
	mu        fixed.Point
	sigma     fixed.Point
	deltaT    fixed.Point
	tickSize  fixed.Point
	steps     int64
	t         int64

	avgTradeInterval time.Duration
	intervalJitter   float64

	avgSize      fixed.Point
	sizeVariance float64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	lastTime   time.Time
	lastPrice  fixed.Point
	halfSpread fixed.Point

	// buyBias drifts in [0.2, 0.8] so aggressor runs cluster the way real
	// tape does instead of flipping a fair coin per print.
	buyBias float64

	priceDigits int
	sizeDigits  int
}

func NewTradeGenerator(
	symbol string,
	rng *rand.Rand,
	startTime time.Time,
	startPrice, tickSize, mu, sigma, deltaT fixed.Point,
	steps int64) *TradeGenerator {

	return &TradeGenerator{
		symbol: symbol,
		rng:    rng,

		startTime: startTime,
		mu:        mu,
		sigma:     sigma,
		deltaT:    deltaT,
		tickSize:  tickSize,
		steps:     steps,

		avgTradeInterval: time.Duration(333_000_000),
		intervalJitter:   0.3,

		avgSize:      fixed.FromInt64(5, 0),
		sizeVariance: 0.5,

		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		lastTime:   startTime,
		lastPrice:  startPrice,
		halfSpread: tickSize.DivInt64(2),

		buyBias: 0.5,

		priceDigits: 2,
		sizeDigits:  0,
	}
}

func (g *TradeGenerator) SetTradeParameters(avgInterval time.Duration, jitter float64, avgSize fixed.Point, sizeVariance float64) {
	g.avgTradeInterval = avgInterval
	g.intervalJitter = jitter
	g.avgSize = avgSize
	g.sizeVariance = sizeVariance
}

func (g *TradeGenerator) SetDigits(priceDigits, sizeDigits int) {
	g.priceDigits = priceDigits
	g.sizeDigits = sizeDigits
}

func (g *TradeGenerator) GetNext() (datasource.Event, error) {
	if g.t >= g.steps {
		return datasource.Event{}, ErrEof
	}

	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	g.lastPrice = g.lastPrice.Mul(deltaLog.Exp())

	g.lastTime = g.lastTime.Add(g.nextInterval())
	g.t++

	if g.t%depthEvery == 0 {
		depth := g.makeDepth()
		return datasource.Event{Depth: &depth}, nil
	}

	trade := g.makeTrade()
	return datasource.Event{Trade: &trade}, nil
}

func (g *TradeGenerator) makeTrade() common.Trade {
	mid := g.lastPrice.SnapToStep(g.tickSize)
	bid := mid.Sub(g.halfSpread).Rescale(g.priceDigits)
	ask := mid.Add(g.halfSpread).Rescale(g.priceDigits)

	g.buyBias += g.rng.NormFloat64() * 0.05
	if g.buyBias < 0.2 {
		g.buyBias = 0.2
	} else if g.buyBias > 0.8 {
		g.buyBias = 0.8
	}

	var price fixed.Point
	var side common.Side
	if g.rng.Float64() < g.buyBias {
		price, side = ask, common.SideBuy
	} else {
		price, side = bid, common.SideSell
	}

	return common.Trade{
		Source:      tradeGeneratorComponentName,
		Symbol:      g.symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   g.lastTime,
		Price:       price,
		Size:        g.nextSize(),
		Side:        side,
		Bid:         bid,
		Ask:         ask,
	}
}

func (g *TradeGenerator) makeDepth() common.Depth {
	mid := g.lastPrice.SnapToStep(g.tickSize)
	bid := mid.Sub(g.halfSpread).Rescale(g.priceDigits)
	ask := mid.Add(g.halfSpread).Rescale(g.priceDigits)

	depth := common.Depth{
		Source:      tradeGeneratorComponentName,
		Symbol:      g.symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   g.lastTime,
	}

	for i := 0; i < bookLevels; i++ {
		offset := g.tickSize.MulInt(i)
		depth.Bids = append(depth.Bids, common.PriceLevel{
			Price: bid.Sub(offset),
			Size:  g.restingSize(),
		})
		depth.Asks = append(depth.Asks, common.PriceLevel{
			Price: ask.Add(offset),
			Size:  g.restingSize(),
		})
	}
	return depth
}

func (g *TradeGenerator) nextInterval() time.Duration {
	if g.intervalJitter <= 0 {
		return g.avgTradeInterval
	}

	lambda := 1.0 / float64(g.avgTradeInterval.Nanoseconds())
	interval := g.rng.ExpFloat64() / lambda

	minInterval := float64(g.avgTradeInterval.Nanoseconds()) * (1.0 - g.intervalJitter)
	maxInterval := float64(g.avgTradeInterval.Nanoseconds()) * (1.0 + g.intervalJitter*3)

	if interval < minInterval {
		interval = minInterval
	} else if interval > maxInterval {
		interval = maxInterval
	}

	return time.Duration(int64(interval))
}

func (g *TradeGenerator) nextSize() fixed.Point {
	variation := g.rng.NormFloat64() * g.sizeVariance
	size := g.avgSize.Mul(fixed.FromFloat64(1.0 + variation)).Rescale(g.sizeDigits)
	if size.Lte(fixed.Zero) {
		size = fixed.One
	}
	return size
}

func (g *TradeGenerator) restingSize() fixed.Point {
	size := g.avgSize.MulInt(4).Mul(fixed.FromFloat64(0.5 + g.rng.Float64())).Rescale(g.sizeDigits)
	if size.Lte(fixed.Zero) {
		size = fixed.One
	}
	return size
}
