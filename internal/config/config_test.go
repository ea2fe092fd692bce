package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv(APIKeyEnv, "")
	t.Setenv("STOCKDESK_FMP_API_KEY", "")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.FMP.APIKey)
	assert.Equal(t, "https://financialmodelingprep.com/api", cfg.FMP.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.FMP.Timeout)

	assert.Equal(t, 1024, cfg.Cache.MaxEntries)
	assert.Equal(t, TTLConfig{
		Quote:        time.Minute,
		News:         time.Minute,
		History:      15 * time.Minute,
		Fundamentals: 6 * time.Hour,
	}, cfg.Cache.TTL)

	assert.Equal(t, 5, cfg.RateLimit.Tokens)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.Interval)

	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseBackoff)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxBackoff)

	assert.True(t, cfg.Breaker.Enabled)
	assert.EqualValues(t, 5, cfg.Breaker.Failures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Cooldown)

	assert.Equal(t, 10, cfg.News.Limit)
	assert.False(t, cfg.News.RSSFallback)
	assert.Contains(t, cfg.News.RSSURL, "{ticker}")

	assert.Equal(t, "0.0.0.0:8080", cfg.API.Addr())
	assert.Equal(t, []string{"*"}, cfg.API.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.API.QuoteStreamInterval)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.ValidateUpstream(), ErrMissingAPIKey)
}

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	content := `
fmp:
  api_key: "file-key-1234567"
  timeout: 3s
cache:
  max_entries: 50
  ttl:
    quote: 15s
rate_limit:
  tokens: 300
  interval: 1m
retry:
  max_retries: 4
breaker:
  enabled: false
news:
  rss_fallback: true
api:
  port: 9090
  cors_origins:
    - https://app.example.com
logging:
  level: debug
  format: console
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key-1234567", cfg.FMP.APIKey)
	assert.Equal(t, 3*time.Second, cfg.FMP.Timeout)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
	assert.Equal(t, 15*time.Second, cfg.Cache.TTL.Quote)
	// Unset keys keep their defaults.
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL.Fundamentals)
	assert.Equal(t, 300, cfg.RateLimit.Tokens)
	assert.Equal(t, time.Minute, cfg.RateLimit.Interval)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	assert.False(t, cfg.Breaker.Enabled)
	assert.True(t, cfg.News.RSSFallback)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.API.CORSOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	require.NoError(t, cfg.ValidateUpstream())
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	clearKeyEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 9090\n"), 0o600))

	t.Setenv("STOCKDESK_API_PORT", "7070")
	t.Setenv("STOCKDESK_RETRY_BASE_BACKOFF", "10ms")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.API.Port)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.BaseBackoff)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key-abcdefgh")

	cfg := &Config{FMP: FMPConfig{APIKey: "file-key"}}
	overrideFromEnv(cfg)
	assert.Equal(t, "env-key-abcdefgh", cfg.FMP.APIKey)
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{FMP: FMPConfig{APIKey: "file-key"}}
	overrideFromEnv(cfg)
	assert.Equal(t, "file-key", cfg.FMP.APIKey)
}

func TestPrefixedKeyEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("STOCKDESK_FMP_API_KEY", "prefixed-key-123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed-key-123", cfg.FMP.APIKey)
}

// ── Validate ──

func validConfig(t *testing.T) *Config {
	t.Helper()
	clearKeyEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	cfg.FMP.APIKey = "test-key-123456"
	return cfg
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"cache size", func(c *Config) { c.Cache.MaxEntries = 0 }, "cache.max_entries"},
		{"negative ttl", func(c *Config) { c.Cache.TTL.News = -time.Second }, "cache.ttl.news"},
		{"rate interval", func(c *Config) { c.RateLimit.Interval = 0 }, "rate_limit.interval"},
		{"rate burst", func(c *Config) { c.RateLimit.Burst = -1 }, "rate_limit.burst"},
		{"retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "retry.max_retries"},
		{"breaker failures", func(c *Config) { c.Breaker.Failures = 0 }, "breaker.failures"},
		{"rss url", func(c *Config) { c.News.RSSFallback = true; c.News.RSSURL = "http://x" }, "news.rss_url"},
		{"port", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"log format", func(c *Config) { c.Logging.Format = "text" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAllowsDisabledLimits(t *testing.T) {
	cfg := validConfig(t)
	cfg.RateLimit.Tokens = 0
	cfg.RateLimit.Interval = 0
	cfg.Breaker.Enabled = false
	cfg.Breaker.Failures = 0
	assert.NoError(t, cfg.ValidateUpstream())
}

func TestRedacted(t *testing.T) {
	cfg := validConfig(t)
	red := cfg.Redacted()

	assert.Equal(t, "tes...456", red.FMP.APIKey)
	assert.Equal(t, "test-key-123456", cfg.FMP.APIKey)
}

// ── Keys ──

func TestMaskKeyShort(t *testing.T) {
	for _, k := range []string{"", "a", "12345678"} {
		assert.Equal(t, "***", maskKey(k), k)
	}
}

func TestMaskKeyLong(t *testing.T) {
	assert.Equal(t, "abc...xyz", maskKey("abcdefghijxyz"))
	assert.Equal(t, "123...789", maskKey("123456789"))
}

func TestCheckAPIKeysEmpty(t *testing.T) {
	clearKeyEnv(t)

	statuses := CheckAPIKeys(&Config{})
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].IsSet)
	assert.Equal(t, KeySourceNone, statuses[0].Source)
	assert.Empty(t, statuses[0].Masked)
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearKeyEnv(t)

	statuses := CheckAPIKeys(&Config{FMP: FMPConfig{APIKey: "fmp-very-long-key-value"}})
	require.Len(t, statuses, 1)
	assert.Equal(t, KeyStatus{
		Name:   "FMP API Key",
		Source: KeySourceConfig,
		IsSet:  true,
		Masked: "fmp...lue",
	}, statuses[0])
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(APIKeyEnv, "fmp-env-key-for-testing")

	statuses := CheckAPIKeys(&Config{FMP: FMPConfig{APIKey: "fmp-env-key-for-testing"}})
	assert.Equal(t, KeySourceEnv, statuses[0].Source)
	assert.Equal(t, APIKeyEnv, statuses[0].Env)
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, homeDir())
}
