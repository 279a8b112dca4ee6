// Package config defines the top-level configuration for the scanner and
// provides validation helpers.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBSCAN_* environment variables.
type Config struct {
	Opinion  OpinionConfig  `toml:"opinion"`
	Probable ProbableConfig `toml:"probable"`
	Upstream UpstreamConfig `toml:"upstream"`
	Cache    CacheConfig    `toml:"cache"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	Feed     FeedConfig     `toml:"feed"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// OpinionConfig holds the Opinion API endpoints and credentials.
type OpinionConfig struct {
	BaseURL      string            `toml:"base_url"`
	APIKey       string            `toml:"api_key"`
	MarketsPath  string            `toml:"markets_path"`
	MarketsQuery map[string]string `toml:"markets_query"`
	PricePath    string            `toml:"price_path"`
	EnvelopeKeys []string          `toml:"envelope_keys"`
}

// ProbableConfig holds the Probable API endpoints. An empty PricesPath
// disables the price join.
type ProbableConfig struct {
	BaseURL           string            `toml:"base_url"`
	MarketsPath       string            `toml:"markets_path"`
	MarketsQuery      map[string]string `toml:"markets_query"`
	PricesPath        string            `toml:"prices_path"`
	EventNested       bool              `toml:"event_nested"`
	EnvelopeKeys      []string          `toml:"envelope_keys"`
	PriceEnvelopeKeys []string          `toml:"price_envelope_keys"`
}

// UpstreamConfig bounds every outbound call.
type UpstreamConfig struct {
	Timeout duration `toml:"timeout"`
}

// CacheConfig selects the slot cache backend.
type CacheConfig struct {
	Backend string   `toml:"backend"` // "memory" or "redis"
	TTL     duration `toml:"ttl"`
}

// RedisConfig holds Redis connection parameters. Only used when
// cache.backend is "redis".
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	StaticDir   string   `toml:"static_dir"`
}

// FeedConfig controls the background scan loop feeding /ws clients.
// A zero interval disables it.
type FeedConfig struct {
	Interval duration `toml:"interval"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Opinion: OpinionConfig{
			BaseURL:     "https://openapi.opinion.trade/openapi",
			MarketsPath: "/market",
			MarketsQuery: map[string]string{
				"status": "activated",
				"limit":  "50",
				"sortBy": "5",
			},
			PricePath: "/token/latest-price",
		},
		Probable: ProbableConfig{
			BaseURL:     "https://market-api.probable.markets",
			MarketsPath: "/events",
			MarketsQuery: map[string]string{
				"closed": "false",
				"sort":   "volume",
				"order":  "desc",
				"limit":  "100",
			},
			PricesPath:  "/prices",
			EventNested: true,
		},
		Upstream: UpstreamConfig{
			Timeout: duration{10 * time.Second},
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     duration{60 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			KeyPrefix:  "arbscan",
		},
		Server: ServerConfig{
			Port:      3000,
			StaticDir: "public",
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// SlogLevel maps LogLevel to a slog.Level, case-insensitively. Unknown values
// fall back to info; Validate rejects them.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"scan":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, scan)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if err := checkBaseURL(c.Opinion.BaseURL); err != "" {
		errs = append(errs, "opinion: base_url "+err)
	}
	if c.Opinion.MarketsPath == "" {
		errs = append(errs, "opinion: markets_path must not be empty")
	}
	if c.Opinion.PricePath == "" {
		errs = append(errs, "opinion: price_path must not be empty")
	}

	if err := checkBaseURL(c.Probable.BaseURL); err != "" {
		errs = append(errs, "probable: base_url "+err)
	}
	if c.Probable.MarketsPath == "" {
		errs = append(errs, "probable: markets_path must not be empty")
	}

	if c.Upstream.Timeout.Duration <= 0 {
		errs = append(errs, "upstream: timeout must be > 0")
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when cache.backend is redis")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if c.Cache.TTL.Duration <= 0 {
		errs = append(errs, "cache: ttl must be > 0")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Feed.Interval.Duration < 0 {
		errs = append(errs, "feed: interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func checkBaseURL(raw string) string {
	if raw == "" {
		return "must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Sprintf("must be an absolute http(s) URL, got %q", raw)
	}
	return ""
}
