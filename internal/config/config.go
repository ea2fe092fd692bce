// Package config loads stockdesk configuration from YAML files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STOCKDESK_API_PORT.
const EnvPrefix = "STOCKDESK"

// APIKeyEnv is the conventional variable holding the FMP key.
const APIKeyEnv = "FMP_API_KEY"

// ErrMissingAPIKey is returned by ValidateUpstream when no FMP key is set.
var ErrMissingAPIKey = errors.New("FMP API key is not set (fmp.api_key or " + APIKeyEnv + ")")

// Config represents the complete application configuration.
type Config struct {
	FMP       FMPConfig       `mapstructure:"fmp"        yaml:"fmp"`
	Cache     CacheConfig     `mapstructure:"cache"      yaml:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry"      yaml:"retry"`
	Breaker   BreakerConfig   `mapstructure:"breaker"    yaml:"breaker"`
	News      NewsConfig      `mapstructure:"news"       yaml:"news"`
	API       APIConfig       `mapstructure:"api"        yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"    yaml:"logging"`
}

// FMPConfig holds the upstream account and endpoint.
type FMPConfig struct {
	APIKey  string        `mapstructure:"api_key"  yaml:"api_key"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"  yaml:"timeout"` // per attempt
}

// CacheConfig sizes the response cache.
type CacheConfig struct {
	MaxEntries int       `mapstructure:"max_entries" yaml:"max_entries"`
	TTL        TTLConfig `mapstructure:"ttl"         yaml:"ttl"`
}

// TTLConfig holds freshness per endpoint class.
type TTLConfig struct {
	Quote        time.Duration `mapstructure:"quote"        yaml:"quote"`
	News         time.Duration `mapstructure:"news"         yaml:"news"`
	History      time.Duration `mapstructure:"history"      yaml:"history"`
	Fundamentals time.Duration `mapstructure:"fundamentals" yaml:"fundamentals"`
}

// RateLimitConfig is the per-key token bucket.
type RateLimitConfig struct {
	Tokens   int           `mapstructure:"tokens"   yaml:"tokens"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Burst    int           `mapstructure:"burst"    yaml:"burst"`
}

// RetryConfig bounds retries of transient failures.
type RetryConfig struct {
	MaxRetries  int           `mapstructure:"max_retries"  yaml:"max_retries"`
	BaseBackoff time.Duration `mapstructure:"base_backoff" yaml:"base_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"  yaml:"max_backoff"`
}

// BreakerConfig controls the upstream circuit breaker.
type BreakerConfig struct {
	Enabled  bool          `mapstructure:"enabled"  yaml:"enabled"`
	Failures uint32        `mapstructure:"failures" yaml:"failures"`
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
}

// NewsConfig holds news lookup settings.
type NewsConfig struct {
	Limit       int    `mapstructure:"limit"        yaml:"limit"`
	RSSFallback bool   `mapstructure:"rss_fallback" yaml:"rss_fallback"`
	RSSURL      string `mapstructure:"rss_url"      yaml:"rss_url"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host                string        `mapstructure:"host"                  yaml:"host"`
	Port                int           `mapstructure:"port"                  yaml:"port"`
	CORSOrigins         []string      `mapstructure:"cors_origins"          yaml:"cors_origins"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"       yaml:"request_timeout"`
	QuoteStreamInterval time.Duration `mapstructure:"quote_stream_interval" yaml:"quote_stream_interval"`
}

// Addr is the listen address.
func (a APIConfig) Addr() string { return fmt.Sprintf("%s:%d", a.Host, a.Port) }

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.stockdesk/config.yaml
//  3. /etc/stockdesk/config.yaml
//
// A missing file is not an error. Environment variables override file
// values: STOCKDESK_<SECTION>_<KEY>, e.g. STOCKDESK_RETRY_MAX_RETRIES.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockdesk"))
	v.AddConfigPath("/etc/stockdesk")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("fmp.api_key", "")
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api")
	v.SetDefault("fmp.timeout", 10*time.Second)

	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("cache.ttl.quote", 60*time.Second)
	v.SetDefault("cache.ttl.news", 60*time.Second)
	v.SetDefault("cache.ttl.history", 15*time.Minute)
	v.SetDefault("cache.ttl.fundamentals", 6*time.Hour)

	v.SetDefault("rate_limit.tokens", 5)
	v.SetDefault("rate_limit.interval", time.Second)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.base_backoff", 250*time.Millisecond)
	v.SetDefault("retry.max_backoff", 2*time.Second)

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.failures", 5)
	v.SetDefault("breaker.cooldown", 30*time.Second)

	v.SetDefault("news.limit", 10)
	v.SetDefault("news.rss_fallback", false)
	v.SetDefault("news.rss_url", "https://feeds.finance.yahoo.com/rss/2.0/headline?s={ticker}&region=US&lang=en-US")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.request_timeout", 30*time.Second)
	v.SetDefault("api.quote_stream_interval", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// FMP_API_KEY wins over STOCKDESK_FMP_API_KEY and the file.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.FMP.APIKey = key
	}
}

// Validate checks value ranges. It does not require an API key.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.FMP.BaseURL != "", "fmp.base_url must be set")
	check(c.FMP.Timeout > 0, "fmp.timeout must be positive, got %s", c.FMP.Timeout)
	check(c.Cache.MaxEntries > 0, "cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	for name, ttl := range map[string]time.Duration{
		"quote":        c.Cache.TTL.Quote,
		"news":         c.Cache.TTL.News,
		"history":      c.Cache.TTL.History,
		"fundamentals": c.Cache.TTL.Fundamentals,
	} {
		check(ttl >= 0, "cache.ttl.%s must not be negative, got %s", name, ttl)
	}
	check(c.RateLimit.Tokens >= 0, "rate_limit.tokens must not be negative, got %d", c.RateLimit.Tokens)
	check(c.RateLimit.Burst >= 0, "rate_limit.burst must not be negative, got %d", c.RateLimit.Burst)
	check(c.RateLimit.Tokens == 0 || c.RateLimit.Interval > 0, "rate_limit.interval must be positive, got %s", c.RateLimit.Interval)
	check(c.Retry.MaxRetries >= 0, "retry.max_retries must not be negative, got %d", c.Retry.MaxRetries)
	check(c.Retry.BaseBackoff >= 0, "retry.base_backoff must not be negative, got %s", c.Retry.BaseBackoff)
	check(!c.Breaker.Enabled || c.Breaker.Failures > 0, "breaker.failures must be positive when the breaker is enabled")
	check(!c.Breaker.Enabled || c.Breaker.Cooldown > 0, "breaker.cooldown must be positive when the breaker is enabled")
	check(c.News.Limit > 0, "news.limit must be positive, got %d", c.News.Limit)
	check(!c.News.RSSFallback || strings.Contains(c.News.RSSURL, "{ticker}"), "news.rss_url must contain {ticker}")
	check(c.API.Port > 0 && c.API.Port < 65536, "api.port out of range: %d", c.API.Port)
	check(c.API.QuoteStreamInterval > 0, "api.quote_stream_interval must be positive, got %s", c.API.QuoteStreamInterval)
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// ValidateUpstream is Validate plus the API key, for commands that call FMP.
func (c *Config) ValidateUpstream() error {
	if strings.TrimSpace(c.FMP.APIKey) == "" {
		return errors.Join(ErrMissingAPIKey, c.Validate())
	}
	return c.Validate()
}

// Redacted returns a copy safe to print, with the API key masked.
func (c Config) Redacted() Config {
	if c.FMP.APIKey != "" {
		c.FMP.APIKey = maskKey(c.FMP.APIKey)
	}
	c.API.CORSOrigins = append([]string(nil), c.API.CORSOrigins...)
	return c
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
