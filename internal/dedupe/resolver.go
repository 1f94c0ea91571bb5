// Package dedupe decides whether a candidate names a place the trip already has.
//
// Resolution is two-stage. An empty item set short-circuits without any model
// call. Otherwise one model call arbitrates against a numbered list of
// existing names. Any failure in arbitration fails open: the candidate is
// treated as new, because a missed duplicate can be removed by the user later
// while a wrongly dropped place is lost silently.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/llmjson"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

// DefaultMaxItems caps how many existing names are shown to the model.
const DefaultMaxItems = 50

const systemPrompt = `You decide whether a newly shared travel place is the same real-world place
as one already saved in a trip. Branches of the same chain in different
neighbourhoods are different places. Minor spelling, romanisation or suffix
differences ("Ichiran" vs "Ichiran Ramen Shibuya") are the same place when the
rest of the context agrees.
Return JSON only: {"is_duplicate": true|false, "matched_index": <1-based index or null>}.`

// Stages of arbitration that can fail.
const (
	StageGenerate = "generate"
	StageDecode   = "decode"
)

// ResolutionError describes why arbitration could not produce a verdict.
type ResolutionError struct {
	Stage string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("duplicate arbitration %s: %v", e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type verdict struct {
	IsDuplicate  bool `json:"is_duplicate"`
	MatchedIndex *int `json:"matched_index"`
}

// Resolver implements the duplicate check against one language-model tier.
type Resolver struct {
	gen      domain.TextGenerator
	timeout  time.Duration
	maxItems int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a Resolver. maxItems <= 0 uses DefaultMaxItems.
func NewResolver(gen domain.TextGenerator, timeout time.Duration, maxItems int, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Resolver{
		gen:      gen,
		timeout:  timeout,
		maxItems: maxItems,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolve reports whether candidateName duplicates one of existing. It never
// returns an error: arbitration failures are logged and resolve to "new".
func (r *Resolver) Resolve(ctx context.Context, candidateName string, existing []domain.ExistingItem) domain.DuplicateDecision {
	if len(existing) == 0 {
		r.metrics.DedupeDecisions.WithLabelValues("fast_path").Inc()
		return domain.DuplicateDecision{}
	}

	decision, err := r.Arbitrate(ctx, candidateName, existing)
	if err != nil {
		r.logger.Warn("duplicate check unavailable, treating candidate as new",
			"candidate", candidateName, "error", err)
		r.metrics.DedupeDecisions.WithLabelValues("fail_open").Inc()
		return failOpen(err)
	}

	if decision.IsDuplicate {
		r.metrics.DedupeDecisions.WithLabelValues("duplicate").Inc()
	} else {
		r.metrics.DedupeDecisions.WithLabelValues("unique").Inc()
	}
	return decision
}

// Arbitrate asks the model for a verdict over the first maxItems of existing.
// Failures are returned as *ResolutionError.
// A verdict without a usable index is "not duplicate" whatever its boolean says.
func (r *Resolver) Arbitrate(ctx context.Context, candidateName string, existing []domain.ExistingItem) (domain.DuplicateDecision, error) {
	presented := existing
	if len(presented) > r.maxItems {
		presented = presented[:r.maxItems]
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.gen.Generate(callCtx, domain.Prompt{
		System: systemPrompt,
		User:   userPrompt(candidateName, presented),
		JSON:   true,
	})
	if err != nil {
		return domain.DuplicateDecision{}, &ResolutionError{Stage: StageGenerate, Err: err}
	}

	var v verdict
	if err := llmjson.Decode(raw, &v); err != nil {
		return domain.DuplicateDecision{}, &ResolutionError{Stage: StageDecode, Err: err}
	}

	if !v.IsDuplicate || v.MatchedIndex == nil {
		return domain.DuplicateDecision{}, nil
	}
	idx := *v.MatchedIndex
	if idx < 1 || idx > len(presented) {
		r.logger.Debug("duplicate verdict index out of range",
			"candidate", candidateName, "matched_index", idx, "presented", len(presented))
		return domain.DuplicateDecision{}, nil
	}

	matched := presented[idx-1].ID
	return domain.DuplicateDecision{IsDuplicate: true, MatchedItemID: &matched}, nil
}

// failOpen is the single policy for arbitration failures.
func failOpen(error) domain.DuplicateDecision {
	return domain.DuplicateDecision{IsDuplicate: false}
}

func userPrompt(candidateName string, existing []domain.ExistingItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New place: %s\n\nAlready saved:\n", strings.TrimSpace(candidateName))
	for i, item := range existing {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Name)
	}
	return b.String()
}
