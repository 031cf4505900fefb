package events

import (
	"time"

	"customsflow/internal/customs"
)

// Kind distinguishes event payloads.
type Kind string

const (
	KindLifecycleTransition Kind = "lifecycle_transition"
	KindAuditCompleted      Kind = "audit_completed"
	KindAnomalyObserved     Kind = "anomaly_observed"
)

// Sources name the publishing component.
const (
	SourceLifecycle  = "lifecycle"
	SourceAuditQueue = "audit_queue"
	SourceFeed       = "feed"
)

// Event is a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind   Kind
	Source string
	Seq    int64
	At     time.Time

	DeclarationID string
	From          customs.Status
	To            customs.Status

	TransactionID string

	Anomaly customs.AnomalyEvent
}

// LifecycleTransition reports a declaration status change.
func LifecycleTransition(declarationID string, from, to customs.Status, at time.Time) Event {
	return Event{
		Kind:          KindLifecycleTransition,
		Source:        SourceLifecycle,
		At:            at,
		DeclarationID: declarationID,
		From:          from,
		To:            to,
	}
}

// AuditCompleted reports that adjudication finished for a declaration.
func AuditCompleted(declarationID, transactionID string, at time.Time) Event {
	return Event{
		Kind:          KindAuditCompleted,
		Source:        SourceAuditQueue,
		At:            at,
		DeclarationID: declarationID,
		TransactionID: transactionID,
	}
}

// AnomalyObserved carries one synthetic feed entry.
func AnomalyObserved(anomaly customs.AnomalyEvent) Event {
	return Event{
		Kind:    KindAnomalyObserved,
		Source:  SourceFeed,
		At:      anomaly.Timestamp,
		Anomaly: anomaly,
	}
}
