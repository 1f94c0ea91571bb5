package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGeminiKey = "gm-test-key"
	testOpenAIKey = "sk-test-key"
)

// minimalEnv sets the one secret the defaults cannot supply.
func minimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", testGeminiKey)
}

func TestLoad_Defaults(t *testing.T) {
	minimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "travelbuddy.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, LLMTier{Provider: ProviderGemini, Model: "gemini-2.5-flash"}, cfg.LLMPrimary)
	assert.Empty(t, cfg.LLMFallback.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 50, cfg.DedupeMaxItems)
	assert.False(t, cfg.PlacesEnabled())
	assert.Equal(t, 5*time.Second, cfg.PlacesTimeout)
	assert.InDelta(t, 5.0, cfg.PlacesRateLimitRPS, 0.001)
	assert.Equal(t, 24*time.Hour, cfg.PlacesCacheTTL)
	assert.Equal(t, "en", cfg.PlacesLanguage)
	assert.Equal(t, 300*time.Millisecond, cfg.ImportPacing)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "trip-import-confirmations", cfg.KafkaNotifyTopic)
	assert.Empty(t, cfg.TemplatesFile)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/travelbuddy")
	t.Setenv("LLM_PRIMARY_PROVIDER", "openai")
	t.Setenv("LLM_PRIMARY_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_FALLBACK_PROVIDER", "gemini")
	t.Setenv("LLM_FALLBACK_MODEL", "gemini-2.5-flash-lite")
	t.Setenv("OPENAI_API_KEY", testOpenAIKey)
	t.Setenv("GEMINI_API_KEY", testGeminiKey)
	t.Setenv("DEDUPE_MAX_ITEMS", "25")
	t.Setenv("GOOGLE_PLACES_API_KEY", "places-key")
	t.Setenv("PLACES_RATE_LIMIT_RPS", "2.5")
	t.Setenv("PLACES_DEFAULT_REGION", "Japan")
	t.Setenv("IMPORT_PACING", "0s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_NOTIFY_TOPIC", "confirmations")
	t.Setenv("TEMPLATES_FILE", "/etc/travelbuddy/templates.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, LLMTier{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}, cfg.LLMPrimary)
	assert.Equal(t, LLMTier{Provider: ProviderGemini, Model: "gemini-2.5-flash-lite"}, cfg.LLMFallback)
	assert.Equal(t, 25, cfg.DedupeMaxItems)
	assert.True(t, cfg.PlacesEnabled())
	assert.InDelta(t, 2.5, cfg.PlacesRateLimitRPS, 0.001)
	assert.Equal(t, "Japan", cfg.PlacesDefaultRegion)
	assert.Zero(t, cfg.ImportPacing)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "confirmations", cfg.KafkaNotifyTopic)
	assert.Equal(t, "/etc/travelbuddy/templates.yaml", cfg.TemplatesFile)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, wantMsg string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"STORE_TIMEOUT", "0s", "STORE_TIMEOUT"},
		{"LLM_TIMEOUT", "bad", "LLM_TIMEOUT"},
		{"PLACES_TIMEOUT", "bad", "PLACES_TIMEOUT"},
		{"PLACES_CACHE_TTL", "-5m", "PLACES_CACHE_TTL"},
		{"IMPORT_PACING", "-1ms", "IMPORT_PACING"},
		{"DEDUPE_MAX_ITEMS", "0", "DEDUPE_MAX_ITEMS"},
		{"DEDUPE_MAX_ITEMS", "9999", "DEDUPE_MAX_ITEMS"},
		{"PLACES_RATE_LIMIT_RPS", "0", "PLACES_RATE_LIMIT_RPS"},
		{"STORE_DRIVER", "mysql", "STORE_DRIVER"},
		{"LLM_PRIMARY_PROVIDER", "anthropic", "LLM_PRIMARY_PROVIDER"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			minimalEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_PostgresWithoutURL(t *testing.T) {
	minimalEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_GeminiWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_FallbackRequiresModel(t *testing.T) {
	minimalEnv(t)
	t.Setenv("LLM_FALLBACK_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", testOpenAIKey)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_FALLBACK_MODEL")
}

func TestLoad_FallbackRequiresKey(t *testing.T) {
	minimalEnv(t)
	t.Setenv("LLM_FALLBACK_PROVIDER", "openai")
	t.Setenv("LLM_FALLBACK_MODEL", "gpt-4o-mini")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}
