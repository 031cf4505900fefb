package testsupport

import (
	"path/filepath"
	"testing"

	"customsflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory with short
// stage delays so real-clock tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Lifecycle.ProcessingDelayMS = 5
	cfgVal.Lifecycle.ValidationDelayMS = 5
	cfgVal.Lifecycle.ClearanceDelayMS = 5
	cfgVal.Audit.AdjudicationDelayMS = 5
	cfgVal.Audit.DisplayHoldMS = 5
	cfgVal.Feed.IntervalMS = 5
	cfgVal.Feed.Seed = 1
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithAuditThreshold overrides the routing threshold.
func WithAuditThreshold(threshold int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lifecycle.AuditThreshold = threshold
	}
}

// WithoutJournal disables the SQLite journal.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
