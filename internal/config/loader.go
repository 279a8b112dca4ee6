package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSCAN_* environment variable overrides, and
// returns the final Config. A missing file is not an error; the scanner runs
// on defaults plus environment. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// decodeFile decodes path over cfg. TOML decoding merges into existing maps,
// so query maps are cleared first and their defaults restored only when the
// file leaves them unset; a file-defined query replaces the default outright.
func decodeFile(path string, cfg *Config) error {
	opinionQuery := cfg.Opinion.MarketsQuery
	probableQuery := cfg.Probable.MarketsQuery
	cfg.Opinion.MarketsQuery = nil
	cfg.Probable.MarketsQuery = nil

	md, err := toml.DecodeFile(path, cfg)
	if !md.IsDefined("opinion", "markets_query") {
		cfg.Opinion.MarketsQuery = opinionQuery
	}
	if !md.IsDefined("probable", "markets_query") {
		cfg.Probable.MarketsQuery = probableQuery
	}
	return err
}

// applyEnvOverrides reads well-known ARBSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). PORT is honoured as well for platforms that inject it.
func applyEnvOverrides(cfg *Config) {
	// ── Opinion ──
	setStr(&cfg.Opinion.BaseURL, "ARBSCAN_OPINION_BASE_URL")
	setStr(&cfg.Opinion.APIKey, "ARBSCAN_OPINION_API_KEY")
	setStr(&cfg.Opinion.MarketsPath, "ARBSCAN_OPINION_MARKETS_PATH")
	setStr(&cfg.Opinion.PricePath, "ARBSCAN_OPINION_PRICE_PATH")
	setStringSlice(&cfg.Opinion.EnvelopeKeys, "ARBSCAN_OPINION_ENVELOPE_KEYS")

	// ── Probable ──
	setStr(&cfg.Probable.BaseURL, "ARBSCAN_PROBABLE_BASE_URL")
	setStr(&cfg.Probable.MarketsPath, "ARBSCAN_PROBABLE_MARKETS_PATH")
	setStr(&cfg.Probable.PricesPath, "ARBSCAN_PROBABLE_PRICES_PATH")
	setBool(&cfg.Probable.EventNested, "ARBSCAN_PROBABLE_EVENT_NESTED")
	setStringSlice(&cfg.Probable.EnvelopeKeys, "ARBSCAN_PROBABLE_ENVELOPE_KEYS")
	setStringSlice(&cfg.Probable.PriceEnvelopeKeys, "ARBSCAN_PROBABLE_PRICE_ENVELOPE_KEYS")

	// ── Upstream / cache ──
	setDuration(&cfg.Upstream.Timeout, "ARBSCAN_UPSTREAM_TIMEOUT")
	setStr(&cfg.Cache.Backend, "ARBSCAN_CACHE_BACKEND")
	setDuration(&cfg.Cache.TTL, "ARBSCAN_CACHE_TTL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCAN_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "ARBSCAN_REDIS_KEY_PREFIX")

	// ── Server ──
	setInt(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.Port, "ARBSCAN_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBSCAN_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.StaticDir, "ARBSCAN_SERVER_STATIC_DIR")

	// ── Feed ──
	setDuration(&cfg.Feed.Interval, "ARBSCAN_FEED_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBSCAN_MODE")
	setStr(&cfg.LogLevel, "ARBSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
