package config

import "time"

// Config holds runtime settings for the VoiceLedger CLI.
//
// Units: DebounceInterval and SyncInterval are time.Durations.
type Config struct {
	// ServerURL is the base URL of the sync server.
	ServerURL string
	// DatabasePath is the local SQLite file.
	DatabasePath string
	// DebounceInterval is the quiet period after a local change before a
	// push-only sync pass runs.
	DebounceInterval time.Duration
	// SyncInterval is the cadence of the periodic full sync.
	SyncInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "voiceledger.db"
	c.DebounceInterval = 2 * time.Second
	c.SyncInterval = 5 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
