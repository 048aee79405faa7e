package replay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"orderflow/pkg/bus"
	"orderflow/pkg/common"
)

type State string

const (
	StateIdle     State = "idle"
	StateLoaded   State = "loaded"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateStopped  State = "stopped"
	StateComplete State = "complete"
)

var (
	ErrNoData       = errors.New("no replay data loaded")
	ErrInvalidRange = errors.New("replay range start must precede end")
	ErrInvalidSpeed = errors.New("replay speed must be positive")
	ErrNotPlaying   = errors.New("replay is not playing")
)

// Loader fetches the recorded trades for a replay session. The duckdb store
// implements it; tests substitute an in-memory slice.
type Loader interface {
	LoadTrades(ctx context.Context, symbol string, from, to time.Time) ([]common.Trade, error)
}

// maxStepDelay caps the gap between two scheduled events. Quiet stretches in
// the recording compress instead of stalling the replay.
const maxStepDelay = 10 * time.Second

// flushInterval is the event-time cadence of metrics flushes during replay.
const flushInterval = time.Second

// Scheduler plays recorded trades back through the router, preserving
// inter-event gaps scaled by the playback speed. All timing derives from the
// recorded timestamps, so a replayed session reproduces the exact analytics
// the live session computed.
type Scheduler struct {
	mu sync.Mutex

	router *bus.Router
	symbol string

	trades []common.Trade
	pos    int
	speed  float64
	state  State

	timer     *time.Timer
	lastFlush time.Time
}

func NewScheduler(symbol string, router *bus.Router) *Scheduler {
	return &Scheduler{
		router: router,
		symbol: symbol,
		state:  StateIdle,
	}
}

// Load fetches the range and replaces any previous session. An active
// playback is stopped first. Returns the number of loaded trades.
func (s *Scheduler) Load(ctx context.Context, loader Loader, from, to time.Time) (int, error) {
	if !from.Before(to) {
		return 0, ErrInvalidRange
	}

	trades, err := loader.LoadTrades(ctx, s.symbol, from, to)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.trades = trades
	s.pos = 0
	s.state = StateLoaded
	return len(trades), nil
}

// Play starts or resumes playback at the given speed multiplier. Playing
// again after Complete or Stopped restarts from the beginning.
func (s *Scheduler) Play(speed float64) error {
	if speed <= 0 {
		return ErrInvalidSpeed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.trades) == 0 {
		return ErrNoData
	}

	switch s.state {
	case StatePlaying:
		s.speed = speed
		return nil
	case StateComplete, StateStopped:
		s.pos = 0
		s.lastFlush = time.Time{}
	}

	s.speed = speed
	s.state = StatePlaying
	s.timer = time.AfterFunc(0, s.step)
	return nil
}

// Pause halts playback between events. The pending timer is cancelled
// synchronously, so no event fires after Pause returns.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return ErrNotPlaying
	}
	s.cancelTimerLocked()
	s.state = StatePaused
	return nil
}

// Stop ends the session and rewinds to the start. The loaded data stays
// available for another Play.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.pos = 0
	s.lastFlush = time.Time{}
	if s.state != StateIdle {
		s.state = StateStopped
	}
}

type Status struct {
	State    State   `json:"state"`
	Running  bool    `json:"running"`
	Position int     `json:"position"`
	Total    int     `json:"total"`
	Progress float64 `json:"progress"`
	Speed    float64 `json:"speed,omitempty"`
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:    s.state,
		Running:  s.state == StatePlaying,
		Position: s.pos,
		Total:    len(s.trades),
		Speed:    s.speed,
	}
	if st.Total > 0 {
		st.Progress = float64(st.Position) / float64(st.Total)
	}
	return st
}

// step emits the current event and schedules the next one. It runs on the
// timer goroutine; the state check under lock makes a cancelled step a no-op.
func (s *Scheduler) step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying || s.pos >= len(s.trades) {
		return
	}

	trade := s.trades[s.pos]
	s.emitLocked(trade)
	s.pos++

	if s.pos >= len(s.trades) {
		s.state = StateComplete
		s.timer = nil
		return
	}

	delay := s.trades[s.pos].TimeStamp.Sub(trade.TimeStamp)
	if delay < 0 {
		delay = 0
	}
	delay = time.Duration(float64(delay) / s.speed)
	if delay > maxStepDelay {
		delay = maxStepDelay
	}
	s.timer = time.AfterFunc(delay, s.step)
}

// emitLocked posts the trade and any metrics flushes its timestamp crosses.
// Flush cadence runs on event time so replay throttling and roll-ups match
// what live produced.
func (s *Scheduler) emitLocked(trade common.Trade) {
	if s.lastFlush.IsZero() {
		s.lastFlush = trade.TimeStamp.Truncate(flushInterval)
	}
	for next := s.lastFlush.Add(flushInterval); !next.After(trade.TimeStamp); next = next.Add(flushInterval) {
		if err := s.router.Post(bus.MetricsFlushEvent, common.MetricsFlush{TimeStamp: next}); err != nil {
			slog.Warn("replay flush dropped", "error", err)
		}
		s.lastFlush = next
	}

	if err := s.router.Post(bus.TradeEvent, trade); err != nil {
		slog.Warn("replay trade dropped", "error", err, "position", s.pos)
	}
}

func (s *Scheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
