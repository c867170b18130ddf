package config

import "os"

// Environment variables consulted after the JSON file and before flags.
const (
	EnvSessionSecret = "SESSION_SECRET"
	EnvDatabaseURL   = "DATABASE_URL"
)

func parseEnv(config *Config) {
	if v, ok := os.LookupEnv(EnvSessionSecret); ok && v != "" {
		config.SessionSecret = v
	}
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok && v != "" {
		config.DatabaseDSN = v
	}
}
