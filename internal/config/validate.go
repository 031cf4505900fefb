package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLifecycle(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLifecycle() error {
	l := c.Lifecycle
	if l.ProcessingDelayMS < 0 {
		return errors.New("lifecycle.processing_delay_ms must be non-negative")
	}
	if l.ValidationDelayMS < 0 {
		return errors.New("lifecycle.validation_delay_ms must be non-negative")
	}
	if l.ClearanceDelayMS < 0 {
		return errors.New("lifecycle.clearance_delay_ms must be non-negative")
	}
	if l.AuditThreshold < 0 || l.AuditThreshold > maxRiskScore {
		return fmt.Errorf("lifecycle.audit_threshold must be between 0 and %d", maxRiskScore)
	}
	if l.ScoringAttempts < 1 {
		return errors.New("lifecycle.scoring_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateAudit() error {
	a := c.Audit
	if a.AdjudicationDelayMS < 0 {
		return errors.New("audit.adjudication_delay_ms must be non-negative")
	}
	if a.DisplayHoldMS < 0 {
		return errors.New("audit.display_hold_ms must be non-negative")
	}
	if a.HighRiskCutoff < 0 || a.HighRiskCutoff > maxRiskScore {
		return fmt.Errorf("audit.high_risk_cutoff must be between 0 and %d", maxRiskScore)
	}
	return nil
}

func (c *Config) validateFeed() error {
	f := c.Feed
	if f.IntervalMS <= 0 {
		return errors.New("feed.interval_ms must be positive")
	}
	if f.Capacity <= 0 {
		return errors.New("feed.capacity must be positive")
	}
	if f.HighRiskRatio < 0 || f.HighRiskRatio > 1 {
		return errors.New("feed.high_risk_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.Language {
	case "en", "zh":
		return nil
	default:
		return fmt.Errorf("notifications.language must be en or zh, got %q", c.Notifications.Language)
	}
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Bind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
		return fmt.Errorf("metrics.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
