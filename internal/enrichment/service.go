// Package enrichment resolves a candidate name to a canonical place record.
package enrichment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

// Service looks candidates up with a PlaceSearchProvider. Lookups are best
// effort: a miss and a provider failure both return nil.
type Service struct {
	provider      domain.PlaceSearchProvider
	defaultRegion string
	timeout       time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewService creates a Service. defaultRegion biases queries for candidates
// without a location hint (e.g. "Japan"); empty disables the bias. timeout
// bounds each provider call separately.
func NewService(provider domain.PlaceSearchProvider, defaultRegion string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		provider:      provider,
		defaultRegion: strings.TrimSpace(defaultRegion),
		timeout:       timeout,
		logger:        logger,
		metrics:       metrics,
	}
}

// Enrich searches for name near locationHint and returns details for the
// first hit, or nil when nothing was found or the provider failed.
func (s *Service) Enrich(ctx context.Context, name, locationHint string) *domain.EnrichmentResult {
	if s.provider == nil {
		return nil
	}
	query := s.Query(name, locationHint)
	if query == "" {
		return nil
	}

	hits, err := s.search(ctx, query)
	if err != nil {
		s.logger.Warn("place search failed", "query", query, "error", err)
		s.metrics.EnrichmentLookups.WithLabelValues("error").Inc()
		return nil
	}
	if len(hits) == 0 || hits[0].PlaceID == "" {
		s.logger.Debug("no place found", "query", query)
		s.metrics.EnrichmentLookups.WithLabelValues("empty").Inc()
		return nil
	}

	// First hit wins; no re-ranking between similarly named places.
	details, err := s.details(ctx, hits[0].PlaceID)
	if err != nil {
		s.logger.Warn("place details failed", "query", query, "place_id", hits[0].PlaceID, "error", err)
		s.metrics.EnrichmentLookups.WithLabelValues("error").Inc()
		return nil
	}
	if details.PlaceID == "" {
		details.PlaceID = hits[0].PlaceID
	}

	s.metrics.EnrichmentLookups.WithLabelValues("success").Inc()
	return domain.NewEnrichmentResult(details)
}

// Query builds the text-search query for a candidate.
func (s *Service) Query(name, locationHint string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if hint := strings.TrimSpace(locationHint); hint != "" {
		return name + " " + hint
	}
	if s.defaultRegion != "" {
		return name + " " + s.defaultRegion
	}
	return name
}

func (s *Service) search(ctx context.Context, query string) ([]domain.PlaceSummary, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.TextSearch(callCtx, query)
}

func (s *Service) details(ctx context.Context, placeID string) (domain.PlaceDetails, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Details(callCtx, placeID, domain.DetailFields)
}
