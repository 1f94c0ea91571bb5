package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	httpadapter "github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/http"
	kafkaadapter "github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/kafka"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/llm"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/places"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/postgres"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/sqlite"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/config"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/dedupe"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/enrichment"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/extraction"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/importer"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/notify"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

// itemStore is what both store drivers provide.
type itemStore interface {
	importer.ItemStore
	httpadapter.TripStore
	Ping(ctx context.Context) error
	Close() error
}

// openStore opens the configured store and applies pending migrations.
func openStore(ctx context.Context, cfg *config.Config) (itemStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// openSQLDB opens a database/sql handle for migration tooling.
func openSQLDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return postgres.OpenDB(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		return sqlite.OpenDB(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// newPlaceProvider returns nil when no places API key is configured, which
// turns every enrichment into a miss.
func newPlaceProvider(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.PlaceSearchProvider {
	if !cfg.PlacesEnabled() {
		logger.Info("places enrichment disabled")
		return nil
	}
	client := places.NewClient(places.Config{
		APIKey:    cfg.PlacesAPIKey,
		BaseURL:   cfg.PlacesBaseURL,
		Language:  cfg.PlacesLanguage,
		Timeout:   cfg.PlacesTimeout,
		RateLimit: cfg.PlacesRateLimitRPS,
	}, logger, metrics)
	logger.Info("places enrichment enabled",
		"rate_limit_rps", cfg.PlacesRateLimitRPS,
		"cache_ttl", cfg.PlacesCacheTTL,
		"default_region", cfg.PlacesDefaultRegion,
	)
	return places.NewCachedProvider(client, cfg.PlacesCacheTTL, metrics)
}

// services are the wired import components shared by serve and extract.
type services struct {
	agent    *extraction.Agent
	importer *importer.Orchestrator
}

func newServices(ctx context.Context, cfg *config.Config, store importer.ItemStore, logger *slog.Logger, metrics *observability.Metrics) (*services, error) {
	tiers, err := llm.NewTiers(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("no language model tiers configured")
	}

	agent := extraction.NewAgent(tiers, cfg.LLMTimeout, logger, metrics)
	resolver := dedupe.NewResolver(tiers[0], cfg.LLMTimeout, cfg.DedupeMaxItems, logger, metrics)
	enricher := enrichment.NewService(newPlaceProvider(cfg, logger, metrics), cfg.PlacesDefaultRegion, cfg.PlacesTimeout, logger, metrics)

	imp := importer.New(store, resolver, enricher, agent, importer.Options{
		Pacing:       cfg.ImportPacing,
		StoreTimeout: cfg.StoreTimeout,
	}, logger, metrics)

	return &services{agent: agent, importer: imp}, nil
}

// newNotifier publishes to Kafka when brokers are configured and falls back
// to the log otherwise. The returned func releases the producer.
func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka notifications disabled; confirmations go to the log")
		return notify.NewLogNotifier(logger), func() error { return nil }
	}
	n := kafkaadapter.NewNotifier(cfg, logger)
	logger.Info("kafka notifications enabled", "topic", cfg.KafkaNotifyTopic, "brokers", cfg.KafkaBrokers)
	return n, n.Close
}

func newConfirmer(cfg *config.Config, n notify.Notifier, logger *slog.Logger) (*notify.Confirmer, error) {
	templates, err := notify.LoadTemplates(cfg.TemplatesFile)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	return notify.NewConfirmer(n, templates, rng, logger), nil
}
