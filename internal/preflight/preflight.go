package preflight

import (
	"context"
	"fmt"
	"strings"

	"customsflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if bind := strings.TrimSpace(cfg.Metrics.Bind); bind != "" {
		results = append(results, CheckBindAddress("Metrics endpoint", bind))
	}

	// ntfy outages never block a session.
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		ntfy := CheckNtfy(ctx, topic)
		ntfy.Optional = true
		results = append(results, ntfy)
	}

	return results
}

// FirstFailure returns an error describing the first required check that
// did not pass, or nil.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return fmt.Errorf("preflight %s failed: %s", strings.ToLower(r.Name), r.Detail)
		}
	}
	return nil
}
