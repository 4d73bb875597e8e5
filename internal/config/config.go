package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     int
	DevMode  bool
	LogLevel string

	// CacheDir is where the per-namespace JSON cache files live.
	CacheDir string

	// External endpoints. Templated URLs take the ticker/symbol via %s.
	RankFeedURL     string
	QuotePageURL    string
	ProfileAPIURL   string
	PriceHistoryURL string

	HTTPTimeout time.Duration

	// Cache TTLs. Classification changes rarely; prices and trend
	// results go stale daily. Negative results are retried sooner.
	ClassificationTTL time.Duration
	PriceTTL          time.Duration
	NegativeTTL       time.Duration
	CacheFlushEvery   int

	// Rate limiting / fan-out policy per backend.
	ScrapeDelay       time.Duration
	ProfileFanOut     int
	ProfileBatchDelay time.Duration

	// Industry trend computation.
	BasketDelay        time.Duration
	BasketMaxSampled   int
	TrendTimeout       time.Duration
	PriceLookbackRange string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CacheDir: getEnv("CACHE_DIR", "./data/cache"),

		RankFeedURL:     getEnv("RANK_FEED_URL", "https://stockcharts.com/def/servlet/SC.scan"),
		QuotePageURL:    getEnv("QUOTE_PAGE_URL", "https://stockcharts.com/sc3/ui/?s=%s"),
		ProfileAPIURL:   getEnv("PROFILE_API_URL", "https://financialmodelingprep.com/api/v3/profile/%s"),
		PriceHistoryURL: getEnv("PRICE_HISTORY_URL", "https://query1.finance.yahoo.com/v8/finance/chart/%s"),

		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		ClassificationTTL: getEnvAsDuration("CLASSIFICATION_TTL", 180*24*time.Hour),
		PriceTTL:          getEnvAsDuration("PRICE_TTL", 24*time.Hour),
		NegativeTTL:       getEnvAsDuration("NEGATIVE_TTL", 6*time.Hour),
		CacheFlushEvery:   getEnvAsInt("CACHE_FLUSH_EVERY", 10),

		ScrapeDelay:       getEnvAsDuration("SCRAPE_DELAY", 4*time.Second),
		ProfileFanOut:     getEnvAsInt("PROFILE_FAN_OUT", 5),
		ProfileBatchDelay: getEnvAsDuration("PROFILE_BATCH_DELAY", 500*time.Millisecond),

		BasketDelay:        getEnvAsDuration("BASKET_DELAY", 250*time.Millisecond),
		BasketMaxSampled:   getEnvAsInt("BASKET_MAX_SAMPLED", 20),
		TrendTimeout:       getEnvAsDuration("TREND_TIMEOUT", 45*time.Second),
		PriceLookbackRange: getEnv("PRICE_LOOKBACK_RANGE", "3mo"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.RankFeedURL == "" {
		return fmt.Errorf("RANK_FEED_URL is required")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("CACHE_DIR is required")
	}
	if c.ProfileFanOut < 1 {
		return fmt.Errorf("PROFILE_FAN_OUT must be at least 1")
	}
	if c.BasketMaxSampled < 1 {
		return fmt.Errorf("BASKET_MAX_SAMPLED must be at least 1")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
