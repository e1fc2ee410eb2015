// Package config loads runtime configuration for the Sophia companion client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables, optionally via a .env file (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-d string   local data directory
//	-t int      request timeout (seconds)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for timeouts, so values can be either
// strings like "10s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.sophia.example",
//	  "data_dir": "/home/user/.sophia",
//	  "request_timeout": "10s",
//	  "log_level": "debug"
//	}
//
// # Environment
//
// Variables carry the SOPHIA_ prefix: SOPHIA_API_BASE_URL, SOPHIA_DATA_DIR,
// SOPHIA_REQUEST_TIMEOUT, SOPHIA_LOG_LEVEL. A .env file in the working
// directory is honored; real environment variables win over it.
//
// Primary API
//
//   - type Config: runtime settings for the client
//   - func LoadConfig() *Config: builds Config by applying defaults, JSON, env, then flags
//   - func (*Config) LoadDefaults(): sets sensible defaults
package config
