package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string       gRPC bind address (e.g., ":50051")
//	-m string       metrics bind address, empty disables the endpoint
//	-d string       PostgreSQL DSN
//	-memory         keep accounts in memory, no database
//	-s string       access token secret
//	-rs string      refresh token secret
//	-t duration     access token lifetime ("15m", "1h")
//	-r duration     refresh token lifetime ("7d", "168h")
//	-log-level      debug, info, warn or error
//	-log-format     json or text
//
// Unrecognised flags are filtered out first with flagx.FilterArgs so that
// -c and -env-file pass through without tripping the parser.
func parseFlags(config *Config, args []string) error {
	// Filter args to include only the flags handled here.
	args = flagx.FilterArgs(args, []string{"-a", "-m", "-d", "-memory", "-s", "-rs", "-t", "-r", "-log-level", "-log-format"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for metrics and health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.BoolVar(&config.InMemory, "memory", config.InMemory, "keep accounts in memory")
	fs.StringVar(&config.AccessSecret, "s", config.AccessSecret, "access token secret")
	fs.StringVar(&config.RefreshSecret, "rs", config.RefreshSecret, "refresh token secret")
	fs.Func("t", "access token lifetime", func(v string) error {
		return setDuration(&config.AccessTTL, v)
	})
	fs.Func("r", "refresh token lifetime", func(v string) error {
		return setDuration(&config.RefreshTTL, v)
	})
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := timex.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
