package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// defaultScraperMaxFrameSize fits a year of history for a busy account in one frame.
const defaultScraperMaxFrameSize = 16 << 20

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StoreDriver    string
	RunMigrations  bool
	MigrationsPath string

	// Scraper service the sync source talks to
	ScraperURL          string        `mapstructure:"SCRAPER_URL"`
	ScraperTimeout      time.Duration `mapstructure:"SCRAPER_TIMEOUT"`
	ScraperMaxFrameSize int           `mapstructure:"SCRAPER_MAX_FRAME_SIZE"`

	SyncRateLimit            string          `mapstructure:"SYNC_RATE_LIMIT"`
	SyncMaxLookback          time.Duration   `mapstructure:"SYNC_MAX_LOOKBACK"`
	PatternCacheTTL          time.Duration   `mapstructure:"PATTERN_CACHE_TTL"`
	RecurringAmountTolerance decimal.Decimal `mapstructure:"RECURRING_AMOUNT_TOLERANCE"`
	RecurringGraceDays       int             `mapstructure:"RECURRING_GRACE_DAYS"`
	CORSAllowedOrigins       []string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("RUN_MIGRATIONS", true)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("SCRAPER_URL", "http://localhost:3001")
	viper.SetDefault("SCRAPER_TIMEOUT", "10m")
	viper.SetDefault("SCRAPER_MAX_FRAME_SIZE", defaultScraperMaxFrameSize)
	viper.SetDefault("SYNC_RATE_LIMIT", "10-M")
	viper.SetDefault("SYNC_MAX_LOOKBACK", "8760h")
	viper.SetDefault("PATTERN_CACHE_TTL", "5m")
	viper.SetDefault("RECURRING_AMOUNT_TOLERANCE", "0.25")
	viper.SetDefault("RECURRING_GRACE_DAYS", 7)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	// Environment variables override defaults and .env values.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RunMigrations = viper.GetBool("RUN_MIGRATIONS")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.StoreDriver = strings.ToLower(viper.GetString("STORE_DRIVER"))
	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		log.Printf("Warning: Invalid value for STORE_DRIVER ('%s'). Defaulting to %s.\n", cfg.StoreDriver, StoreDriverPostgres)
		cfg.StoreDriver = StoreDriverPostgres
	}
	if cfg.StoreDriver == StoreDriverPostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.ScraperURL = strings.TrimRight(viper.GetString("SCRAPER_URL"), "/")
	if cfg.ScraperURL == "" {
		log.Println("Warning: SCRAPER_URL not set. Syncs will fail until a scraper is configured.")
	}
	cfg.ScraperTimeout = durationOrDefault("SCRAPER_TIMEOUT", 10*time.Minute)
	cfg.ScraperMaxFrameSize = viper.GetInt("SCRAPER_MAX_FRAME_SIZE")
	if cfg.ScraperMaxFrameSize <= 0 {
		log.Printf("Warning: Invalid value for SCRAPER_MAX_FRAME_SIZE ('%s'). Defaulting to %d.\n", viper.GetString("SCRAPER_MAX_FRAME_SIZE"), defaultScraperMaxFrameSize)
		cfg.ScraperMaxFrameSize = defaultScraperMaxFrameSize
	}

	cfg.SyncRateLimit = viper.GetString("SYNC_RATE_LIMIT")
	cfg.SyncMaxLookback = durationOrDefault("SYNC_MAX_LOOKBACK", 365*24*time.Hour)
	cfg.PatternCacheTTL = durationOrDefault("PATTERN_CACHE_TTL", 5*time.Minute)

	toleranceStr := viper.GetString("RECURRING_AMOUNT_TOLERANCE")
	tolerance, err := decimal.NewFromString(toleranceStr)
	if err != nil || !tolerance.IsPositive() {
		tolerance = decimal.RequireFromString("0.25")
		log.Printf("Warning: Invalid value for RECURRING_AMOUNT_TOLERANCE ('%s'). Defaulting to %s.\n", toleranceStr, tolerance)
	}
	cfg.RecurringAmountTolerance = tolerance

	cfg.RecurringGraceDays = viper.GetInt("RECURRING_GRACE_DAYS")
	if cfg.RecurringGraceDays < 0 {
		log.Printf("Warning: Negative RECURRING_GRACE_DAYS (%d). Defaulting to 7.\n", cfg.RecurringGraceDays)
		cfg.RecurringGraceDays = 7
	}

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// durationOrDefault parses a duration setting, falling back on bad input.
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
