// Package extraction turns unstructured shared content into place candidates
// using an ordered list of language-model tiers.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/llmjson"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

// Attempt outcomes recorded in metrics.
const (
	outcomeSuccess        = "success"
	outcomeGeneratorError = "generator_error"
	outcomeInvalidOutput  = "invalid_output"
)

// rawCandidate mirrors the model's JSON. Fields are strings so that a bad
// category can be dropped per item instead of failing the whole decode.
type rawCandidate struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	LocationHint string `json:"location_hint"`
}

type multiResponse struct {
	Places *[]rawCandidate `json:"places"`
}

// Agent extracts candidates by trying each tier once, in order.
type Agent struct {
	tiers   []domain.TextGenerator
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAgent creates an Agent. tiers[0] is the primary model; any further tiers
// are fallbacks. timeout bounds each individual tier call.
func NewAgent(tiers []domain.TextGenerator, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Agent {
	return &Agent{
		tiers:   tiers,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Extract returns every place candidate found in content. Zero candidates with
// a nil error means the model found nothing worth saving.
func (a *Agent) Extract(ctx context.Context, content string, source domain.SourceType) ([]domain.Candidate, error) {
	source, err := checkInput(content, source)
	if err != nil {
		return nil, err
	}
	prompt := multiPrompt(content, source)

	var out []domain.Candidate
	err = a.tryTiers(ctx, prompt, func(tier, raw string) error {
		cands, err := a.parseMulti(tier, raw, content)
		if err != nil {
			return err
		}
		out = cands
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractOne returns the single main place in content. Any invalid field fails
// the tier; there is no partial result.
func (a *Agent) ExtractOne(ctx context.Context, content string, source domain.SourceType) (domain.Candidate, error) {
	source, err := checkInput(content, source)
	if err != nil {
		return domain.Candidate{}, err
	}
	prompt := singlePrompt(content, source)

	var out domain.Candidate
	err = a.tryTiers(ctx, prompt, func(_, raw string) error {
		var rc rawCandidate
		if err := llmjson.Decode(raw, &rc); err != nil {
			return err
		}
		c, err := rc.toCandidate(content)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// tryTiers calls each tier once. A generator error or a parse error moves on
// to the next tier; after the last one the collected causes are wrapped in
// ErrExtraction.
func (a *Agent) tryTiers(ctx context.Context, prompt domain.Prompt, parse func(tier, raw string) error) error {
	if len(a.tiers) == 0 {
		return fmt.Errorf("%w: no model tiers configured", domain.ErrExtraction)
	}

	var errs []error
	for _, gen := range a.tiers {
		tier := gen.Name()

		raw, err := a.generate(ctx, gen, prompt)
		if err != nil {
			a.metrics.ExtractionAttempts.WithLabelValues(tier, outcomeGeneratorError).Inc()
			a.logger.Warn("extraction tier failed", "tier", tier, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", tier, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if err := parse(tier, raw); err != nil {
			a.metrics.ExtractionAttempts.WithLabelValues(tier, outcomeInvalidOutput).Inc()
			a.logger.Warn("extraction tier returned invalid output",
				"tier", tier, "error", err, "snippet", llmjson.Snippet(raw))
			errs = append(errs, fmt.Errorf("%s: %w", tier, err))
			continue
		}

		a.metrics.ExtractionAttempts.WithLabelValues(tier, outcomeSuccess).Inc()
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrExtraction, errors.Join(errs...))
}

func (a *Agent) generate(ctx context.Context, gen domain.TextGenerator, prompt domain.Prompt) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return gen.Generate(callCtx, prompt)
}

// parseMulti decodes a {"places": [...]} payload. A missing required field
// invalidates the whole payload; an unknown category only drops that item.
func (a *Agent) parseMulti(tier, raw, content string) ([]domain.Candidate, error) {
	var resp multiResponse
	if err := llmjson.Decode(raw, &resp); err != nil {
		return nil, err
	}
	if resp.Places == nil {
		return nil, errors.New(`missing "places" array`)
	}

	out := make([]domain.Candidate, 0, len(*resp.Places))
	for i, rc := range *resp.Places {
		if err := rc.checkRequired(); err != nil {
			return nil, fmt.Errorf("place %d: %w", i+1, err)
		}
		c, err := rc.toCandidate(content)
		if err != nil {
			a.logger.Info("dropping extracted place with unknown category",
				"tier", tier, "candidate", rc.Name, "category", rc.Category)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (rc rawCandidate) checkRequired() error {
	var missing []string
	if strings.TrimSpace(rc.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(rc.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(rc.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (rc rawCandidate) toCandidate(content string) (domain.Candidate, error) {
	if err := rc.checkRequired(); err != nil {
		return domain.Candidate{}, err
	}
	cat, ok := domain.ParseCategory(rc.Category)
	if !ok {
		return domain.Candidate{}, fmt.Errorf("unknown category %q", rc.Category)
	}
	return domain.Candidate{
		Name:            strings.TrimSpace(rc.Name),
		Category:        cat,
		Description:     strings.TrimSpace(rc.Description),
		LocationHint:    strings.TrimSpace(rc.LocationHint),
		OriginalContent: content,
	}, nil
}

func checkInput(content string, source domain.SourceType) (domain.SourceType, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is empty", domain.ErrValidation)
	}
	st, ok := domain.ParseSourceType(string(source))
	if !ok {
		return "", fmt.Errorf("%w: unsupported source type %q", domain.ErrValidation, source)
	}
	return st, nil
}
