package lifecycle

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"customsflow/internal/clock"
	"customsflow/internal/config"
	"customsflow/internal/events"
	"customsflow/internal/metrics"
	"customsflow/internal/scoring"
)

// Options holds the stage timing and routing threshold.
type Options struct {
	ProcessingDelay time.Duration
	ValidationDelay time.Duration
	ClearanceDelay  time.Duration
	AuditThreshold  int
	ScoringAttempts int
}

// OptionsFromConfig maps the [lifecycle] section onto engine options.
func OptionsFromConfig(cfg config.Lifecycle) Options {
	return Options{
		ProcessingDelay: cfg.ProcessingDelay(),
		ValidationDelay: cfg.ValidationDelay(),
		ClearanceDelay:  cfg.ClearanceDelay(),
		AuditThreshold:  cfg.AuditThreshold,
		ScoringAttempts: cfg.ScoringAttempts,
	}
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Lifecycle)
}

// Dependencies are the collaborators an Engine needs. Scheduler and Scorer
// are required; the rest fall back to no-ops.
type Dependencies struct {
	Scheduler clock.Scheduler
	Scorer    scoring.Scorer
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
