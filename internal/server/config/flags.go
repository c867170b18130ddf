package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address, empty disables
//	-m string   metrics bind address, empty disables
//	-k string   database driver: postgres or sqlite
//	-d string   database DSN
//	-s string   session signing secret
//	-t int      session max age, minutes
//	-l string   log level (debug, info, warn, error)
//	-i          drop the Secure cookie attribute (local HTTP only)
//
// os.Args is filtered with flagx.FilterArgs first, so flags owned by other
// parsers (-c) do not cause errors here.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-m", "-k", "-d", "-s", "-t", "-l"}, "-i")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port of the grpc health service")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port of the metrics listener")
	fs.StringVar(&config.DatabaseDriver, "k", config.DatabaseDriver, "database driver (postgres, sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")
	sessionMaxAge := fs.Int("t", int(config.SessionMaxAge.Minutes()), "session max age (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.InsecureCookie, "i", config.InsecureCookie, "allow session cookie over plain http")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionMaxAge = time.Duration(*sessionMaxAge) * time.Minute
}
