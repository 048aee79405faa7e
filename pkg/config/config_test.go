package config

import (
	"testing"
	"time"

	"orderflow/pkg/utility/fixed"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Symbol != "ES" {
		t.Errorf("symbol = %q", cfg.Symbol)
	}
	if cfg.BarDuration != time.Minute {
		t.Errorf("bar duration = %s", cfg.BarDuration)
	}
	if !cfg.TickSize.Eq(fixed.FromFloat64(0.25)) {
		t.Errorf("tick size = %s", cfg.TickSize.String())
	}
	if cfg.Feed != "synthetic" {
		t.Errorf("feed = %q", cfg.Feed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ORDERFLOW_SYMBOL", "NQ")
	t.Setenv("ORDERFLOW_BAR_SECONDS", "30")
	t.Setenv("ORDERFLOW_TICK_SIZE", "0.5")
	t.Setenv("ORDERFLOW_IMBALANCE_RATIO", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Symbol != "NQ" {
		t.Errorf("symbol = %q", cfg.Symbol)
	}
	if cfg.BarDuration != 30*time.Second {
		t.Errorf("bar duration = %s", cfg.BarDuration)
	}
	if !cfg.TickSize.Eq(fixed.FromFloat64(0.5)) {
		t.Errorf("tick size = %s", cfg.TickSize.String())
	}
	if !cfg.ImbalanceRatio.Eq(fixed.FromInt(4, 0)) {
		t.Errorf("imbalance ratio = %s", cfg.ImbalanceRatio.String())
	}

	ec := cfg.EngineConfig()
	if ec.Symbol != "NQ" || ec.BarDuration != 30*time.Second {
		t.Errorf("engine config = %+v", ec)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"ORDERFLOW_TICK_SIZE", "abc"},
		{"ORDERFLOW_TICK_SIZE", "-0.25"},
		{"ORDERFLOW_BAR_SECONDS", "0"},
		{"ORDERFLOW_DOM_DEPTH", "-1"},
		{"ORDERFLOW_EVENT_CAPACITY", "nope"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q accepted", tc.key, tc.value)
			}
		})
	}
}

func TestValidate_Feed(t *testing.T) {
	t.Setenv("ORDERFLOW_FEED", "archive")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("archive feed without path accepted")
	}

	cfg.ArchivePath = "/data/es.bin"
	if err := cfg.Validate(); err != nil {
		t.Errorf("archive feed with path rejected: %v", err)
	}

	cfg.Feed = "kafka"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown feed accepted")
	}
}
