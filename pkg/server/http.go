package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"orderflow/pkg/bus"
	"orderflow/pkg/common"
	"orderflow/pkg/engine"
	"orderflow/pkg/replay"
)

// Feed is the live ingestion the control surface can start and stop.
type Feed interface {
	Start() error
	Stop()
	Running() bool
}

type Server struct {
	engine    *engine.Engine
	scheduler *replay.Scheduler
	loader    replay.Loader
	feed      Feed
	hub       *Hub
	log       *slog.Logger
	mux       *http.ServeMux
}

func New(eng *engine.Engine, scheduler *replay.Scheduler, loader replay.Loader, feed Feed, logger *slog.Logger) *Server {
	s := &Server{
		engine:    eng,
		scheduler: scheduler,
		loader:    loader,
		feed:      feed,
		hub:       NewHub(logger),
		log:       logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler { return s.mux }

// Run starts the hub loop and blocks serving HTTP until the context ends.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// AttachBroadcasts wires every outbound engine event to a websocket frame.
func (s *Server) AttachBroadcasts(r *bus.Router) {
	r.OnTradeUpdate = func(_ context.Context, trade common.Trade) {
		s.hub.Broadcast("trade", trade)
	}
	r.OnDomUpdate = func(_ context.Context, snapshot common.DomSnapshot) {
		s.hub.Broadcast("dom", snapshot)
	}
	r.OnFootprintUpdate = func(_ context.Context, update common.FootprintUpdate) {
		s.hub.Broadcast(string(update.Kind), update.Bar)
	}
	r.OnCvdUpdate = func(_ context.Context, point common.CvdPoint) {
		s.hub.Broadcast("cvd", point)
	}
	r.OnTapeMetrics = func(_ context.Context, metrics common.TapeMetrics) {
		s.hub.Broadcast("tape", metrics)
	}
	r.OnMetricsUpdate = func(_ context.Context, update common.MetricsUpdate) {
		s.hub.Broadcast("metrics", update)
	}
	r.OnAlert = func(_ context.Context, alert common.Alert) {
		s.hub.Broadcast("alert", alert)
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("/ws", s.hub.ServeWS)

	s.mux.HandleFunc("/api/health", s.apiHealth)
	s.mux.HandleFunc("/api/snapshot", s.apiSnapshot)
	s.mux.HandleFunc("/api/alerts", s.apiAlerts)
	s.mux.HandleFunc("/api/session/reset", s.apiSessionReset)

	s.mux.HandleFunc("/api/feed/start", s.apiFeedStart)
	s.mux.HandleFunc("/api/feed/stop", s.apiFeedStop)

	s.mux.HandleFunc("/api/replay/load", s.apiReplayLoad)
	s.mux.HandleFunc("/api/replay/play", s.apiReplayPlay)
	s.mux.HandleFunc("/api/replay/pause", s.apiReplayPause)
	s.mux.HandleFunc("/api/replay/stop", s.apiReplayStop)
	s.mux.HandleFunc("/api/replay/status", s.apiReplayStatus)
}

func (s *Server) apiHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"feed_running": s.feed != nil && s.feed.Running(),
		"replay":       s.scheduler.Status(),
	})
}

func (s *Server) apiSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) apiAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.engine.AlertConfigs())
	case http.MethodPost:
		var cfg common.AlertConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if cfg.ID == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		switch cfg.Type {
		case common.AlertLargePrint, common.AlertDeltaThreshold, common.AlertTapeSpeed, common.AlertDomImbalance:
		default:
			http.Error(w, "unknown alert type", http.StatusBadRequest)
			return
		}
		s.engine.SetAlertConfig(cfg)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		s.engine.RemoveAlertConfig(id)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiSessionReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.engine.ResetSession()
	s.hub.Broadcast("session_reset", map[string]any{"ok": true})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) apiFeedStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if s.feed == nil {
		http.Error(w, "no feed configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.feed.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) apiFeedStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if s.feed != nil {
		s.feed.Stop()
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) apiReplayLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		From time.Time `json:"from"`
		To   time.Time `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	count, err := s.scheduler.Load(r.Context(), s.loader, req.From, req.To)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, replay.ErrInvalidRange) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count})
}

func (s *Server) apiReplayPlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Speed == 0 {
		req.Speed = 1
	}

	if err := s.scheduler.Play(req.Speed); err != nil {
		status := http.StatusConflict
		if errors.Is(err, replay.ErrInvalidSpeed) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) apiReplayPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if err := s.scheduler.Pause(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) apiReplayStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.scheduler.Stop()
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) apiReplayStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
