package config

import "time"

// Config holds runtime settings for the Sophia companion client.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API, without a trailing slash.
//   - DataDir: directory holding the credential file and the device database.
//   - RequestTimeout: per-request HTTP timeout.
//   - LogLevel: minimum level emitted by the logger (debug, info, warn, error).
type Config struct {
	APIBaseURL     string
	DataDir        string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000"
	c.DataDir = ""
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables, and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
