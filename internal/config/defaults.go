package config

const (
	defaultConfigPath        = "~/.config/customsflow/config.toml"
	projectConfigName        = "customsflow.toml"
	journalFileName          = "journal.db"
	lockFileName             = "operator.lock"
	defaultStateDir          = "~/.local/share/customsflow"
	defaultLogDir            = "~/.local/share/customsflow/logs"
	defaultProcessingDelayMS = 2000
	defaultValidationDelayMS = 2500
	defaultClearanceDelayMS  = 2500
	defaultAuditThreshold    = 40
	defaultScoringAttempts   = 3
	defaultAdjudicationMS    = 2000
	defaultDisplayHoldMS     = 1000
	defaultHighRiskCutoff    = 80
	defaultFeedIntervalMS    = 1500
	defaultFeedCapacity      = 15
	defaultFeedHighRiskRatio = 0.3
	defaultNotifyTimeout     = 10
	defaultNotifyLanguage    = "en"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	ntfyTopicEnv             = "CUSTOMSFLOW_NTFY_TOPIC"
	maxRiskScore             = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Lifecycle: Lifecycle{
			ProcessingDelayMS: defaultProcessingDelayMS,
			ValidationDelayMS: defaultValidationDelayMS,
			ClearanceDelayMS:  defaultClearanceDelayMS,
			AuditThreshold:    defaultAuditThreshold,
			ScoringAttempts:   defaultScoringAttempts,
		},
		Audit: Audit{
			AdjudicationDelayMS: defaultAdjudicationMS,
			DisplayHoldMS:       defaultDisplayHoldMS,
			AutoFinalize:        true,
			HighRiskCutoff:      defaultHighRiskCutoff,
		},
		Feed: Feed{
			IntervalMS:    defaultFeedIntervalMS,
			Capacity:      defaultFeedCapacity,
			HighRiskRatio: defaultFeedHighRiskRatio,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Language:       defaultNotifyLanguage,
			AuditRequired:  true,
			AuditCompleted: true,
			Cleared:        false,
		},
		Journal: Journal{Enabled: true},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
