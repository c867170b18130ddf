package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophjokes/internal/flagx"
	"github.com/dmitrijs2005/gophjokes/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so both "168h" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from "set to the zero value".
type JsonConfig struct {
	HTTPAddr       *string         `json:"http_addr"`
	GRPCHealthAddr *string         `json:"grpc_health_addr"`
	MetricsAddr    *string         `json:"metrics_addr"`
	DatabaseDriver *string         `json:"database_driver"`
	DatabaseDSN    *string         `json:"database_dsn"`
	SessionSecret  *string         `json:"session_secret"`
	SessionMaxAge  *timex.Duration `json:"session_max_age"`
	InsecureCookie *bool           `json:"insecure_cookie"`
	LogLevel       *string         `json:"log_level"`
	LogFormat      *string         `json:"log_format"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag into config. Keys missing from the file leave the current
// value untouched. If the file cannot be read or contains invalid JSON, the
// function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionSecret, c.SessionSecret)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.SessionMaxAge != nil {
		config.SessionMaxAge = c.SessionMaxAge.Duration
	}
	if c.InsecureCookie != nil {
		config.InsecureCookie = *c.InsecureCookie
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
