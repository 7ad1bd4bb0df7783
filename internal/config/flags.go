package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/certvault/internal/flagx"
)

// serverFlags are the short flags understood by the server binary.
var serverFlags = []string{"-a", "-m", "-d", "-r", "-l", "-s", "-k", "-t", "-debug"}

// configFileFlag returns the path given with -c or -config, if any.
func configFileFlag() string {
	return flagx.ConfigFileFlag(os.Args[1:])
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-m string     metrics bind address
//	-d string     PostgreSQL DSN
//	-r string     Redis address
//	-l string     SQLite path
//	-s string     HMAC secret for checksums
//	-k string     issuer token signing key
//	-t duration   issuer token lifetime (e.g., "15m")
//	-debug        verbose logging
//
// os.Args is filtered with flagx.FilterArgs first, so the -c/-config file
// flag handled elsewhere never reaches this flag set.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.GRPCAddr, "a", cfg.GRPCAddr, "address and port to run gRPC server")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address and port to serve metrics")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.SQLitePath, "l", cfg.SQLitePath, "sqlite database path")
	fs.StringVar(&cfg.Secret, "s", cfg.Secret, "certificate HMAC secret")
	fs.StringVar(&cfg.AuthSecret, "k", cfg.AuthSecret, "issuer token signing key")
	fs.DurationVar(&cfg.AccessTokenTTL, "t", cfg.AccessTokenTTL, "issuer token lifetime")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")

	return fs.Parse(args)
}
