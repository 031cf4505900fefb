package customs

import "time"

// FeedStatus describes where a synthetic anomaly sits in triage.
type FeedStatus string

const (
	FeedDetected  FeedStatus = "detected"
	FeedAnalyzing FeedStatus = "analyzing"
)

// RiskLevel grades an anomaly feed entry.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AnomalyEvent is an ephemeral feed entry. It is never persisted.
type AnomalyEvent struct {
	ID          int64
	Timestamp   time.Time
	EventLabel  string
	OriginLabel string
	Status      FeedStatus
	RiskLevel   RiskLevel
}
