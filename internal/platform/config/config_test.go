package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SCRAPER_TIMEOUT", "")
	t.Setenv("SCRAPER_MAX_FRAME_SIZE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 10*time.Minute, cfg.ScraperTimeout)
	assert.Equal(t, 16<<20, cfg.ScraperMaxFrameSize)
	assert.True(t, cfg.RecurringAmountTolerance.Equal(decimal.RequireFromString("0.25")))
	assert.NotEmpty(t, cfg.Port)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("SCRAPER_URL", "http://scraper:3001/")
	t.Setenv("SCRAPER_TIMEOUT", "90s")
	t.Setenv("SCRAPER_MAX_FRAME_SIZE", "33554432")
	t.Setenv("SYNC_RATE_LIMIT", "5-M")
	t.Setenv("PATTERN_CACHE_TTL", "1m")
	t.Setenv("RECURRING_AMOUNT_TOLERANCE", "0.1")
	t.Setenv("RECURRING_GRACE_DAYS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "http://scraper:3001", cfg.ScraperURL)
	assert.Equal(t, 90*time.Second, cfg.ScraperTimeout)
	assert.Equal(t, 32<<20, cfg.ScraperMaxFrameSize)
	assert.Equal(t, "5-M", cfg.SyncRateLimit)
	assert.Equal(t, time.Minute, cfg.PatternCacheTTL)
	assert.True(t, cfg.RecurringAmountTolerance.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, 3, cfg.RecurringGraceDays)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SCRAPER_TIMEOUT", "soon")
	t.Setenv("SCRAPER_MAX_FRAME_SIZE", "-5")
	t.Setenv("RECURRING_AMOUNT_TOLERANCE", "-1")
	t.Setenv("RECURRING_GRACE_DAYS", "-2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 10*time.Minute, cfg.ScraperTimeout)
	assert.Equal(t, 16<<20, cfg.ScraperMaxFrameSize)
	assert.True(t, cfg.RecurringAmountTolerance.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, 7, cfg.RecurringGraceDays)
}
