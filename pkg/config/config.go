package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"orderflow/pkg/engine"
	"orderflow/pkg/utility/fixed"
)

// Config holds all process configuration.
type Config struct {
	Symbol string

	TickSize            fixed.Point
	BarDuration         time.Duration
	ImbalanceRatio      fixed.Point
	LargePrintThreshold fixed.Point
	AbsorptionWindow    time.Duration
	DomDepth            int
	HistoryCapacity     uint
	BarHistoryCapacity  uint
	AlertThrottle       time.Duration

	HTTPAddr      string
	EventCapacity int

	DuckDBPath    string
	FlushInterval time.Duration

	// Feed selects the ingestion source: "synthetic" or "archive".
	Feed        string
	ArchivePath string

	Development bool
}

// Load reads configuration from the environment, with a .env file as an
// optional overlay for local runs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := engine.DefaultConfig(getEnv("ORDERFLOW_SYMBOL", "ES"))

	cfg := &Config{
		Symbol:              defaults.Symbol,
		TickSize:            defaults.TickSize,
		BarDuration:         defaults.BarDuration,
		ImbalanceRatio:      defaults.ImbalanceRatio,
		LargePrintThreshold: defaults.LargePrintThreshold,
		AbsorptionWindow:    defaults.AbsorptionWindow,
		DomDepth:            defaults.DomDepth,
		HistoryCapacity:     defaults.HistoryCapacity,
		BarHistoryCapacity:  defaults.BarHistoryCapacity,
		AlertThrottle:       defaults.AlertThrottle,

		HTTPAddr:      getEnv("ORDERFLOW_HTTP_ADDR", ":8080"),
		EventCapacity: 4096,

		DuckDBPath:    getEnv("ORDERFLOW_DUCKDB_PATH", "orderflow.db"),
		FlushInterval: 5 * time.Second,

		Feed:        getEnv("ORDERFLOW_FEED", "synthetic"),
		ArchivePath: getEnv("ORDERFLOW_ARCHIVE_PATH", ""),

		Development: getEnv("ORDERFLOW_ENV", "development") != "production",
	}

	if v := getEnv("ORDERFLOW_TICK_SIZE", ""); v != "" {
		p, err := fixed.FromString(v)
		if err != nil || !p.IsPos() {
			return nil, fmt.Errorf("invalid ORDERFLOW_TICK_SIZE: %q", v)
		}
		cfg.TickSize = p
	}

	if v := getEnv("ORDERFLOW_BAR_SECONDS", ""); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid ORDERFLOW_BAR_SECONDS: %q", v)
		}
		cfg.BarDuration = time.Duration(secs) * time.Second
	}

	if v := getEnv("ORDERFLOW_IMBALANCE_RATIO", ""); v != "" {
		p, err := fixed.FromString(v)
		if err != nil || !p.IsPos() {
			return nil, fmt.Errorf("invalid ORDERFLOW_IMBALANCE_RATIO: %q", v)
		}
		cfg.ImbalanceRatio = p
	}

	if v := getEnv("ORDERFLOW_LARGE_PRINT_THRESHOLD", ""); v != "" {
		p, err := fixed.FromString(v)
		if err != nil || !p.IsPos() {
			return nil, fmt.Errorf("invalid ORDERFLOW_LARGE_PRINT_THRESHOLD: %q", v)
		}
		cfg.LargePrintThreshold = p
	}

	if v := getEnv("ORDERFLOW_DOM_DEPTH", ""); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil || depth <= 0 {
			return nil, fmt.Errorf("invalid ORDERFLOW_DOM_DEPTH: %q", v)
		}
		cfg.DomDepth = depth
	}

	if v := getEnv("ORDERFLOW_HISTORY_CAPACITY", ""); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil || capacity <= 0 {
			return nil, fmt.Errorf("invalid ORDERFLOW_HISTORY_CAPACITY: %q", v)
		}
		cfg.HistoryCapacity = uint(capacity)
	}

	if v := getEnv("ORDERFLOW_ALERT_THROTTLE_SECONDS", ""); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid ORDERFLOW_ALERT_THROTTLE_SECONDS: %q", v)
		}
		cfg.AlertThrottle = time.Duration(secs) * time.Second
	}

	if v := getEnv("ORDERFLOW_FLUSH_SECONDS", ""); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid ORDERFLOW_FLUSH_SECONDS: %q", v)
		}
		cfg.FlushInterval = time.Duration(secs) * time.Second
	}

	if v := getEnv("ORDERFLOW_EVENT_CAPACITY", ""); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil || capacity <= 0 {
			return nil, fmt.Errorf("invalid ORDERFLOW_EVENT_CAPACITY: %q", v)
		}
		cfg.EventCapacity = capacity
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("ORDERFLOW_SYMBOL is required")
	}
	switch c.Feed {
	case "synthetic":
	case "archive":
		if c.ArchivePath == "" {
			return fmt.Errorf("ORDERFLOW_ARCHIVE_PATH is required for the archive feed")
		}
	default:
		return fmt.Errorf("unknown ORDERFLOW_FEED: %q", c.Feed)
	}
	return nil
}

// EngineConfig maps the process config onto the analytics engine.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Symbol:              c.Symbol,
		TickSize:            c.TickSize,
		BarDuration:         c.BarDuration,
		ImbalanceRatio:      c.ImbalanceRatio,
		LargePrintThreshold: c.LargePrintThreshold,
		AbsorptionWindow:    c.AbsorptionWindow,
		DomDepth:            c.DomDepth,
		HistoryCapacity:     c.HistoryCapacity,
		BarHistoryCapacity:  c.BarHistoryCapacity,
		AlertThrottle:       c.AlertThrottle,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
