package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Lifecycle contains the declaration stage delays and routing threshold.
type Lifecycle struct {
	ProcessingDelayMS int `toml:"processing_delay_ms"`
	ValidationDelayMS int `toml:"validation_delay_ms"`
	ClearanceDelayMS  int `toml:"clearance_delay_ms"`
	AuditThreshold    int `toml:"audit_threshold"`
	ScoringAttempts   int `toml:"scoring_attempts"`
}

// ProcessingDelay is the Processing to Validating delay.
func (l Lifecycle) ProcessingDelay() time.Duration { return millis(l.ProcessingDelayMS) }

// ValidationDelay is the Validating to RiskCheck delay.
func (l Lifecycle) ValidationDelay() time.Duration { return millis(l.ValidationDelayMS) }

// ClearanceDelay is the RiskCheck to Cleared delay for low-risk declarations.
func (l Lifecycle) ClearanceDelay() time.Duration { return millis(l.ClearanceDelayMS) }

// Audit contains the review workflow timing.
type Audit struct {
	AdjudicationDelayMS int  `toml:"adjudication_delay_ms"`
	DisplayHoldMS       int  `toml:"display_hold_ms"`
	AutoFinalize        bool `toml:"auto_finalize"`
	HighRiskCutoff      int  `toml:"high_risk_cutoff"`
}

// AdjudicationDelay is the Auditing to Completed delay.
func (a Audit) AdjudicationDelay() time.Duration { return millis(a.AdjudicationDelayMS) }

// DisplayHold is how long a completed audit stays visible before auto-finalize.
func (a Audit) DisplayHold() time.Duration { return millis(a.DisplayHoldMS) }

// Feed contains anomaly feed settings.
type Feed struct {
	IntervalMS    int     `toml:"interval_ms"`
	Capacity      int     `toml:"capacity"`
	Seed          uint64  `toml:"seed"`
	HighRiskRatio float64 `toml:"high_risk_ratio"`
}

// Interval is the tick period while the feed is active.
func (f Feed) Interval() time.Duration { return millis(f.IntervalMS) }

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Language       string `toml:"language"`
	AuditRequired  bool   `toml:"audit_required"`
	AuditCompleted bool   `toml:"audit_completed"`
	Cleared        bool   `toml:"cleared"`
}

// Journal controls the SQLite event journal.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Metrics controls the Prometheus exposition endpoint.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for customsflow.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Lifecycle     Lifecycle     `toml:"lifecycle"`
	Audit         Audit         `toml:"audit"`
	Feed          Feed          `toml:"feed"`
	Notifications Notifications `toml:"notifications"`
	Journal       Journal       `toml:"journal"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite journal location under the state directory.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, journalFileName)
}

// LockPath returns the operator session lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, lockFileName)
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf).SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
