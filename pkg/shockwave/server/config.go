package server

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yourusername/shockwave/pkg/shockwave/http1"
)

// Config holds the server's listen address and every knob the
// connection driver needs, loaded from flags, environment variables,
// and an optional config file. Under viper's usual precedence a flag
// set on the command line wins over an environment variable, which
// wins over the config file.
type Config struct {
	Addr string

	MaxRequestsPerConnection int
	IdleTimeout              time.Duration
	HeadTimeout              time.Duration
	MaxBufferedBody          int64
	SpoolDir                 string

	MaxConcurrentConnections int
	PoolStrategy             http1.PoolStrategy
}

// DefaultConfig mirrors http1.DefaultConnectionConfig's values plus a
// server-level listen address and connection cap.
func DefaultConfig() Config {
	connCfg := http1.DefaultConnectionConfig()
	return Config{
		Addr:                     ":8080",
		MaxRequestsPerConnection: connCfg.MaxRequestsPerConnection,
		IdleTimeout:              connCfg.IdleTimeout,
		HeadTimeout:              connCfg.HeadTimeout,
		MaxBufferedBody:          connCfg.MaxBufferedBody,
		SpoolDir:                 connCfg.SpoolDir,
		MaxConcurrentConnections: 0,
		PoolStrategy:             http1.PoolStrategyStandard,
	}
}

// BindFlags registers this config's fields on fs, for a caller's
// cmd/ package to parse from os.Args.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "address to listen on")
	fs.IntVar(&cfg.MaxRequestsPerConnection, "max-requests-per-connection", cfg.MaxRequestsPerConnection, "requests served per connection before forcing close (0 = unlimited)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "time a connection may sit idle between requests")
	fs.DurationVar(&cfg.HeadTimeout, "head-timeout", cfg.HeadTimeout, "time allowed to read one request's head")
	fs.Int64Var(&cfg.MaxBufferedBody, "max-buffered-body", cfg.MaxBufferedBody, "largest request body kept in memory before spooling to disk")
	fs.StringVar(&cfg.SpoolDir, "spool-dir", cfg.SpoolDir, "directory for spooled request bodies")
	fs.IntVar(&cfg.MaxConcurrentConnections, "max-connections", cfg.MaxConcurrentConnections, "maximum concurrent connections (0 = unlimited)")
}

// LoadFromViper overlays values v picked up from environment variables
// or a config file onto cfg, for any key the caller bound via
// viper.BindPFlags — flags set explicitly on the command line still
// take precedence through viper's own merge order.
func LoadFromViper(v *viper.Viper, cfg *Config) {
	if v.IsSet("addr") {
		cfg.Addr = v.GetString("addr")
	}
	if v.IsSet("max-requests-per-connection") {
		cfg.MaxRequestsPerConnection = v.GetInt("max-requests-per-connection")
	}
	if v.IsSet("idle-timeout") {
		cfg.IdleTimeout = v.GetDuration("idle-timeout")
	}
	if v.IsSet("head-timeout") {
		cfg.HeadTimeout = v.GetDuration("head-timeout")
	}
	if v.IsSet("max-buffered-body") {
		cfg.MaxBufferedBody = v.GetInt64("max-buffered-body")
	}
	if v.IsSet("spool-dir") {
		cfg.SpoolDir = v.GetString("spool-dir")
	}
	if v.IsSet("max-connections") {
		cfg.MaxConcurrentConnections = v.GetInt("max-connections")
	}
}

// connectionConfig derives the http1.ConnectionConfig this server's
// config implies.
func (c Config) connectionConfig() http1.ConnectionConfig {
	return http1.ConnectionConfig{
		MaxRequestsPerConnection: c.MaxRequestsPerConnection,
		IdleTimeout:              c.IdleTimeout,
		HeadTimeout:              c.HeadTimeout,
		MaxBufferedBody:          c.MaxBufferedBody,
		SpoolDir:                 c.SpoolDir,
	}
}
