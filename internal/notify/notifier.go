package notify

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/importer"
)

// Notifier delivers a plain-text message to a trip's chat.
type Notifier interface {
	Notify(ctx context.Context, tripID uuid.UUID, message string) error
}

// LogNotifier writes messages to the log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, tripID uuid.UUID, message string) error {
	n.logger.Info("trip notification", "trip_id", tripID, "message", message)
	return nil
}

// Confirmer picks a template for each finished import and sends it.
type Confirmer struct {
	notifier  Notifier
	templates []string
	logger    *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewConfirmer creates a Confirmer. rng supplies template choice; pass a
// seeded generator in tests.
func NewConfirmer(n Notifier, templates []string, rng *rand.Rand, logger *slog.Logger) *Confirmer {
	return &Confirmer{notifier: n, templates: templates, rng: rng, logger: logger}
}

// Confirm sends the confirmation for s. Delivery failures are logged and
// returned; callers treat them as non-fatal.
func (c *Confirmer) Confirm(ctx context.Context, tripID uuid.UUID, s importer.Summary) error {
	c.mu.Lock()
	tmpl := SelectTemplate(c.rng, c.templates)
	c.mu.Unlock()

	msg := Compose(s, tmpl)
	if err := c.notifier.Notify(ctx, tripID, msg); err != nil {
		c.logger.Warn("confirmation not delivered", "trip_id", tripID, "error", err)
		return err
	}
	return nil
}
