// Package config holds runtime settings for the tracker's sync layer and
// loads them in three stages: defaults, then JSON file, then flags. Later
// stages override earlier ones.
package config

import "time"

// Config holds runtime settings.
//
// Timing knobs:
//   - FallbackThreshold: how long the primary transport may stall before a
//     call switches to the raw fallback transport.
//   - CallTimeout: hard ceiling for one remote primitive call.
//   - SaveTimeout: hard ceiling for one whole multi-step save or delete.
//   - SessionBound: how long the session resolver waits on the live query
//     and on a restore attempt.
type Config struct {
	APIBaseURL string
	APIKey     string
	StorageDSN string

	FallbackThreshold time.Duration
	CallTimeout       time.Duration
	SaveTimeout       time.Duration
	SessionBound      time.Duration

	SyncMaxRetries uint64
	SyncBaseDelay  time.Duration

	// ListLimit caps how many parent rows one fetch pulls.
	ListLimit int
}

// LoadDefaults populates c with sensible defaults.
func LoadDefaults(c *Config) {
	c.APIBaseURL = "http://localhost:8000"
	c.StorageDSN = "tracker.db"
	c.FallbackThreshold = 5 * time.Second
	c.CallTimeout = 15 * time.Second
	c.SaveTimeout = 45 * time.Second
	c.SessionBound = 5 * time.Second
	c.SyncMaxRetries = 2
	c.SyncBaseDelay = time.Second
	c.ListLimit = 500
}

// LoadConfig runs the full pipeline: defaults -> JSON -> flags.
func LoadConfig() *Config {
	cfg := &Config{}
	LoadDefaults(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
