package auditqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"customsflow/internal/clock"
	"customsflow/internal/config"
	"customsflow/internal/events"
	"customsflow/internal/metrics"
)

// Options holds the review workflow timing.
type Options struct {
	AdjudicationDelay time.Duration
	DisplayHold       time.Duration
	AutoFinalize      bool
	HighRiskCutoff    int
}

// OptionsFromConfig maps the [audit] section onto queue options.
func OptionsFromConfig(cfg config.Audit) Options {
	return Options{
		AdjudicationDelay: cfg.AdjudicationDelay(),
		DisplayHold:       cfg.DisplayHold(),
		AutoFinalize:      cfg.AutoFinalize,
		HighRiskCutoff:    cfg.HighRiskCutoff,
	}
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Audit)
}

// Completer is told when an audited declaration may clear.
type Completer interface {
	OnExternalCompletion(ctx context.Context, id string) error
}

// Dependencies are the collaborators a Queue needs. Scheduler is required.
type Dependencies struct {
	Scheduler clock.Scheduler
	Completer Completer
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	NewID     func() string
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
