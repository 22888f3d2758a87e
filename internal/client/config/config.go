package config

import "time"

// Config holds runtime settings for the Maker CLI.
//
// Fields:
//   - ServerBaseURL: base http(s) URL of the backend service.
//   - CacheDBPath: path of the local sqlite file caching the session history.
//   - RequestTimeout: per-request deadline for HTTP calls.
type Config struct {
	ServerBaseURL  string
	CacheDBPath    string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:3000"
	c.CacheDBPath = "maker.db"
	c.RequestTimeout = 10 * time.Second
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
