package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderflow/pkg/bus"
	"orderflow/pkg/common"
	"orderflow/pkg/engine"
	"orderflow/pkg/replay"
	"orderflow/pkg/utility/fixed"
)

type memLoader struct {
	trades []common.Trade
}

func (l *memLoader) LoadTrades(_ context.Context, _ string, _, _ time.Time) ([]common.Trade, error) {
	return l.trades, nil
}

type fakeFeed struct {
	running bool
}

func (f *fakeFeed) Start() error { f.running = true; return nil }
func (f *fakeFeed) Stop()        { f.running = false }
func (f *fakeFeed) Running() bool { return f.running }

func testServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	r := bus.NewRouter(256)
	eng := engine.New(engine.DefaultConfig("ES"), r)
	eng.Attach()
	scheduler := replay.NewScheduler("ES", r)
	loader := &memLoader{trades: []common.Trade{{
		Symbol:    "ES",
		TimeStamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Price:     fixed.FromFloat64(100),
		Size:      fixed.One,
		Side:      common.SideBuy,
	}}}
	return New(eng, scheduler, loader, &fakeFeed{}, slog.Default()), eng
}

func TestServer_AlertLifecycle(t *testing.T) {
	s, eng := testServer(t)

	body := `{"id":"lp-1","type":"large_print","threshold":"50","enabled":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("set alert: %d %s", rec.Code, rec.Body.String())
	}
	if configs := eng.AlertConfigs(); len(configs) != 1 || configs[0].ID != "lp-1" {
		t.Fatalf("configs after set: %+v", configs)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	var listed []common.AlertConfig
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || !listed[0].Threshold.Eq(fixed.FromInt(50, 0)) {
		t.Fatalf("listed: %+v", listed)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/alerts?id=lp-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete alert: %d", rec.Code)
	}
	if configs := eng.AlertConfigs(); len(configs) != 0 {
		t.Fatalf("configs after delete: %+v", configs)
	}
}

func TestServer_AlertValidation(t *testing.T) {
	s, _ := testServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing id", `{"type":"large_print","threshold":"50","enabled":true}`},
		{"unknown type", `{"id":"x","type":"volume_profile","threshold":"50"}`},
		{"bad json", `{`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(tc.body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestServer_ReplayControl(t *testing.T) {
	s, _ := testServer(t)

	// Play before load.
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay/play", strings.NewReader(`{"speed":1}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("play before load: %d", rec.Code)
	}

	// Inverted range.
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay/load",
		strings.NewReader(`{"from":"2025-03-01T11:00:00Z","to":"2025-03-01T10:00:00Z"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay/load",
		strings.NewReader(`{"from":"2025-03-01T10:00:00Z","to":"2025-03-01T11:00:00Z"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("load: %d %s", rec.Code, rec.Body.String())
	}
	var loadResp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&loadResp); err != nil {
		t.Fatal(err)
	}
	if loadResp.Count != 1 {
		t.Fatalf("count = %d, want 1", loadResp.Count)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/replay/status", nil))
	var status replay.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.State != replay.StateLoaded || status.Total != 1 {
		t.Fatalf("status = %+v", status)
	}

	// Negative speed is a caller error.
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay/play", strings.NewReader(`{"speed":-2}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative speed: %d", rec.Code)
	}
}

func TestServer_SnapshotAndReset(t *testing.T) {
	s, eng := testServer(t)

	eng.OnTrade(context.Background(), common.Trade{
		Symbol:    "ES",
		TimeStamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Price:     fixed.FromFloat64(100),
		Size:      fixed.FromFloat64(10),
		Side:      common.SideBuy,
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: %d", rec.Code)
	}
	var snap engine.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Trades) != 1 || snap.Symbol != "ES" {
		t.Fatalf("snapshot = %+v", snap)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d", rec.Code)
	}
	if got := eng.Snapshot(); len(got.Trades) != 0 {
		t.Fatalf("trades after reset: %d", len(got.Trades))
	}

	// Reset is POST-only.
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/reset", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET reset: %d", rec.Code)
	}
}

func TestServer_FeedControl(t *testing.T) {
	s, _ := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feed/start", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("feed start: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var health struct {
		FeedRunning bool `json:"feed_running"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if !health.FeedRunning {
		t.Fatal("feed not running after start")
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feed/stop", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("feed stop: %d", rec.Code)
	}
}
