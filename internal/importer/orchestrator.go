// Package importer drives a batch of candidates through duplicate
// resolution, place enrichment, and persistence for one trip.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

// DefaultPacing is the delay between consecutive enrichment calls.
const DefaultPacing = 300 * time.Millisecond

// ItemStore is the persistence the importer needs.
type ItemStore interface {
	// FindDuplicateCandidates returns the trip's items most likely to match
	// name. An empty name returns the trip's items without a name filter.
	// Returns domain.ErrTripNotFound for an unknown trip.
	FindDuplicateCandidates(ctx context.Context, tripID uuid.UUID, name, locationHint string) ([]domain.ExistingItem, error)

	// Create persists item. Returns domain.ErrPersistenceConflict when the
	// trip already has an item with the same provider place id.
	Create(ctx context.Context, tripID uuid.UUID, item domain.NewItem) (domain.SavedItem, error)
}

// DuplicateResolver decides whether a candidate is already saved.
type DuplicateResolver interface {
	Resolve(ctx context.Context, candidateName string, existing []domain.ExistingItem) domain.DuplicateDecision
}

// Enricher resolves a candidate against the places provider. nil means miss.
type Enricher interface {
	Enrich(ctx context.Context, name, locationHint string) *domain.EnrichmentResult
}

// Extractor turns raw content into candidates.
type Extractor interface {
	Extract(ctx context.Context, content string, source domain.SourceType) ([]domain.Candidate, error)
}

// Options tunes an Orchestrator. A zero Pacing disables the delay between
// enrichment calls.
type Options struct {
	Pacing       time.Duration
	StoreTimeout time.Duration
	Clock        clockwork.Clock
}

// SkippedCandidate is a candidate dropped as a duplicate.
type SkippedCandidate struct {
	Name          string     `json:"name"`
	MatchedItemID *uuid.UUID `json:"matched_item_id,omitempty"`
}

// Failure is a candidate that could not be saved.
type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Summary reports the outcome of one import run.
// SavedCount+SkippedDuplicateCount+FailedCount always equals the number of
// candidates passed to Run.
type Summary struct {
	SavedCount            int                `json:"saved_count"`
	SkippedDuplicateCount int                `json:"skipped_duplicate_count"`
	FailedCount           int                `json:"failed_count"`
	SavedItems            []domain.SavedItem `json:"saved_items"`
	Skipped               []SkippedCandidate `json:"skipped"`
	Failures              []Failure          `json:"failures"`
	Duration              time.Duration      `json:"-"`
}

// Total is the number of candidates the run processed.
func (s Summary) Total() int {
	return s.SavedCount + s.SkippedDuplicateCount + s.FailedCount
}

// Orchestrator runs imports. Candidates within one run are processed
// sequentially so that an item saved for candidate N is visible to the
// duplicate check for candidate N+1.
type Orchestrator struct {
	store     ItemStore
	resolver  DuplicateResolver
	enricher  Enricher
	extractor Extractor

	clock        clockwork.Clock
	pacing       time.Duration
	storeTimeout time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Orchestrator. extractor may be nil if ImportContent is unused.
func New(store ItemStore, resolver DuplicateResolver, enricher Enricher, extractor Extractor, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		resolver:     resolver,
		enricher:     enricher,
		extractor:    extractor,
		clock:        opts.Clock,
		pacing:       opts.Pacing,
		storeTimeout: opts.StoreTimeout,
		logger:       logger,
		metrics:      metrics,
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.storeTimeout <= 0 {
		o.storeTimeout = 5 * time.Second
	}
	return o
}

// ImportContent extracts candidates from content and imports all of them.
// Extraction errors are returned unchanged.
func (o *Orchestrator) ImportContent(ctx context.Context, tripID uuid.UUID, content string, sourceType domain.SourceType, src domain.SourceAttribution) (Summary, error) {
	if o.extractor == nil {
		return Summary{}, errors.New("importer: no extractor configured")
	}
	candidates, err := o.extractor.Extract(ctx, content, sourceType)
	if err != nil {
		return Summary{}, err
	}
	if src.Type == "" {
		src.Type = sourceType
	}
	return o.Run(ctx, tripID, candidates, src)
}

// Run imports candidates into the trip. The only returned error is a
// precondition failure (wrapping domain.ErrPrecondition) when the trip's
// items cannot be read; every per-candidate problem is recorded in the
// Summary instead.
func (o *Orchestrator) Run(ctx context.Context, tripID uuid.UUID, candidates []domain.Candidate, src domain.SourceAttribution) (Summary, error) {
	start := o.clock.Now()
	log := o.logger.With("trip_id", tripID)

	snapshot, err := o.findExisting(ctx, tripID, "", "")
	if err != nil {
		o.metrics.ImportRuns.WithLabelValues("precondition_failed").Inc()
		return Summary{}, fmt.Errorf("%w: read items for trip %s: %w", domain.ErrPrecondition, tripID, err)
	}

	r := &run{
		o:        o,
		tripID:   tripID,
		src:      src,
		log:      log,
		snapshot: snapshot,
		summary: Summary{
			SavedItems: []domain.SavedItem{},
			Skipped:    []SkippedCandidate{},
			Failures:   []Failure{},
		},
	}
	for _, c := range candidates {
		r.process(ctx, c)
	}

	r.summary.Duration = o.clock.Since(start)
	o.metrics.ImportRuns.WithLabelValues("completed").Inc()
	o.metrics.ImportDuration.Observe(r.summary.Duration.Seconds())
	log.Info("import complete",
		"candidates", len(candidates),
		"saved", r.summary.SavedCount,
		"skipped_duplicate", r.summary.SkippedDuplicateCount,
		"failed", r.summary.FailedCount,
		"duration", r.summary.Duration,
	)
	return r.summary, nil
}

// run holds the state of one Run call.
type run struct {
	o        *Orchestrator
	tripID   uuid.UUID
	src      domain.SourceAttribution
	log      *slog.Logger
	snapshot []domain.ExistingItem
	created  []domain.ExistingItem
	enriched int
	summary  Summary
}

func (r *run) process(ctx context.Context, c domain.Candidate) {
	if err := c.Validate(); err != nil {
		r.fail(c.Name, err)
		return
	}

	existing := r.existing(ctx, c)
	if d := r.o.resolver.Resolve(ctx, c.Name, existing); d.IsDuplicate {
		r.summary.SkippedDuplicateCount++
		r.summary.Skipped = append(r.summary.Skipped, SkippedCandidate{Name: c.Name, MatchedItemID: d.MatchedItemID})
		r.o.metrics.ImportCandidates.WithLabelValues("skipped_duplicate").Inc()
		r.log.Info("skipping duplicate candidate", "candidate", c.Name, "matched_item_id", d.MatchedItemID)
		return
	}

	r.pace(ctx)
	enrichment := r.o.enricher.Enrich(ctx, c.Name, c.LocationHint)
	r.enriched++

	item := domain.MergeEnrichment(c, r.src, enrichment)
	saved, err := r.create(ctx, item)
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceConflict) {
			r.log.Warn("candidate already saved by another import", "candidate", c.Name, "error", err)
		}
		r.fail(c.Name, err)
		return
	}

	r.created = append(r.created, domain.ExistingItem{ID: saved.ID, Name: saved.Name})
	r.summary.SavedCount++
	r.summary.SavedItems = append(r.summary.SavedItems, saved)
	r.o.metrics.ImportCandidates.WithLabelValues("saved").Inc()
}

// existing re-reads the trip's likely matches and adds the items this run
// created. If the re-read fails, the initial snapshot stands in for it.
func (r *run) existing(ctx context.Context, c domain.Candidate) []domain.ExistingItem {
	fresh, err := r.o.findExisting(ctx, r.tripID, c.Name, c.LocationHint)
	if err != nil {
		r.log.Warn("re-reading trip items failed, using snapshot", "candidate", c.Name, "error", err)
		fresh = r.snapshot
	}
	return union(fresh, r.created)
}

// pace waits before every enrichment call after the first.
func (r *run) pace(ctx context.Context) {
	if r.enriched == 0 || r.o.pacing <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-r.o.clock.After(r.o.pacing):
	}
}

func (r *run) create(ctx context.Context, item domain.NewItem) (domain.SavedItem, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.o.storeTimeout)
	defer cancel()
	return r.o.store.Create(callCtx, r.tripID, item)
}

func (r *run) fail(name string, err error) {
	r.summary.FailedCount++
	r.summary.Failures = append(r.summary.Failures, Failure{Name: name, Error: err.Error()})
	r.o.metrics.ImportCandidates.WithLabelValues("failed").Inc()
	r.log.Warn("candidate failed", "candidate", name, "error", err)
}

func (o *Orchestrator) findExisting(ctx context.Context, tripID uuid.UUID, name, hint string) ([]domain.ExistingItem, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	return o.store.FindDuplicateCandidates(callCtx, tripID, name, hint)
}

// union appends the items of b missing from a, keeping a's order.
func union(a, b []domain.ExistingItem) []domain.ExistingItem {
	if len(b) == 0 {
		return a
	}
	seen := make(map[uuid.UUID]struct{}, len(a))
	out := make([]domain.ExistingItem, 0, len(a)+len(b))
	for _, it := range a {
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	for _, it := range b {
		if _, ok := seen[it.ID]; !ok {
			out = append(out, it)
		}
	}
	return out
}
