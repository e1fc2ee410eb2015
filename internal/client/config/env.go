package config

import (
	"time"

	"github.com/spf13/viper"
)

// parseEnv overlays Config with values from the environment via Viper.
//
// A .env file in the working directory is read first when present; real
// environment variables override it. Recognized variables:
//
//	SOPHIA_API_BASE_URL      base URL of the backend REST API
//	SOPHIA_DATA_DIR          local data directory
//	SOPHIA_REQUEST_TIMEOUT   Go duration string, e.g. "10s"
//	SOPHIA_LOG_LEVEL         debug, info, warn or error
//
// Unset variables leave the current value in place.
func parseEnv(cfg *Config) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is ignored

	v.AutomaticEnv()

	if s := v.GetString("SOPHIA_API_BASE_URL"); s != "" {
		cfg.APIBaseURL = s
	}
	if s := v.GetString("SOPHIA_DATA_DIR"); s != "" {
		cfg.DataDir = s
	}
	if s := v.GetString("SOPHIA_REQUEST_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if s := v.GetString("SOPHIA_LOG_LEVEL"); s != "" {
		cfg.LogLevel = s
	}
}
