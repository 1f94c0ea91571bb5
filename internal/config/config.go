package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported values for STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported values for LLM_*_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLMTier names one model tier. An empty Provider disables the tier.
type LLMTier struct {
	Provider string
	Model    string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StoreDriver  string
	DatabaseURL  string
	SQLitePath   string
	StoreTimeout time.Duration

	// Language-model tiers, tried in order.
	LLMPrimary    LLMTier
	LLMFallback   LLMTier
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	DedupeMaxItems int

	// Google Places configuration.
	PlacesAPIKey        string
	PlacesBaseURL       string
	PlacesTimeout       time.Duration
	PlacesRateLimitRPS  float64
	PlacesCacheTTL      time.Duration
	PlacesDefaultRegion string
	PlacesLanguage      string

	ImportPacing time.Duration

	KafkaBrokers     []string
	KafkaNotifyTopic string

	TemplatesFile string
}

// PlacesEnabled reports whether a places API key is configured.
func (c *Config) PlacesEnabled() bool {
	return c.PlacesAPIKey != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	storeTimeout, err := parsePositiveDuration("STORE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	llmTimeout, err := parsePositiveDuration("LLM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	placesTimeout, err := parsePositiveDuration("PLACES_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	placesCacheTTL, err := parsePositiveDuration("PLACES_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	// Zero pacing is allowed so local runs and tests can skip the delay.
	pacing, err := time.ParseDuration(envOrDefault("IMPORT_PACING", "300ms"))
	if err != nil || pacing < 0 {
		return nil, errors.New("invalid IMPORT_PACING")
	}

	dedupeMax, err := strconv.Atoi(envOrDefault("DEDUPE_MAX_ITEMS", "50"))
	if err != nil || dedupeMax < 1 || dedupeMax > 500 {
		return nil, errors.New("invalid DEDUPE_MAX_ITEMS: must be between 1 and 500")
	}

	rps, err := strconv.ParseFloat(envOrDefault("PLACES_RATE_LIMIT_RPS", "5"), 64)
	if err != nil || rps <= 0 {
		return nil, errors.New("invalid PLACES_RATE_LIMIT_RPS")
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver:  strings.ToLower(envOrDefault("STORE_DRIVER", DriverSQLite)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   envOrDefault("SQLITE_PATH", "travelbuddy.db"),
		StoreTimeout: storeTimeout,

		LLMPrimary: LLMTier{
			Provider: strings.ToLower(envOrDefault("LLM_PRIMARY_PROVIDER", ProviderGemini)),
			Model:    envOrDefault("LLM_PRIMARY_MODEL", "gemini-2.5-flash"),
		},
		LLMFallback: LLMTier{
			Provider: strings.ToLower(os.Getenv("LLM_FALLBACK_PROVIDER")),
			Model:    os.Getenv("LLM_FALLBACK_MODEL"),
		},
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMTimeout:    llmTimeout,

		DedupeMaxItems: dedupeMax,

		PlacesAPIKey:        os.Getenv("GOOGLE_PLACES_API_KEY"),
		PlacesBaseURL:       envOrDefault("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesTimeout:       placesTimeout,
		PlacesRateLimitRPS:  rps,
		PlacesCacheTTL:      placesCacheTTL,
		PlacesDefaultRegion: os.Getenv("PLACES_DEFAULT_REGION"),
		PlacesLanguage:      envOrDefault("PLACES_LANGUAGE", "en"),

		ImportPacing: pacing,

		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaNotifyTopic: envOrDefault("KAFKA_NOTIFY_TOPIC", "trip-import-confirmations"),

		TemplatesFile: os.Getenv("TEMPLATES_FILE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be postgres or sqlite", c.StoreDriver)
	}

	if c.LLMPrimary.Provider == "" {
		return errors.New("LLM_PRIMARY_PROVIDER is required")
	}
	if err := c.validateTier("LLM_PRIMARY", c.LLMPrimary); err != nil {
		return err
	}
	if c.LLMFallback.Provider != "" {
		if err := c.validateTier("LLM_FALLBACK", c.LLMFallback); err != nil {
			return err
		}
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaNotifyTopic == "" {
		return errors.New("KAFKA_NOTIFY_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func (c *Config) validateTier(prefix string, t LLMTier) error {
	if t.Model == "" {
		return fmt.Errorf("%s_MODEL is required", prefix)
	}
	switch t.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%s_PROVIDER is gemini but GEMINI_API_KEY is not set", prefix)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%s_PROVIDER is openai but OPENAI_API_KEY is not set", prefix)
		}
	default:
		return fmt.Errorf("invalid %s_PROVIDER %q: must be gemini or openai", prefix, t.Provider)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
