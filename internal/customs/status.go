package customs

import "strings"

// Status represents the lifecycle of a declaration.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusProcessing    Status = "processing"
	StatusValidating    Status = "validating"
	StatusRiskCheck     Status = "risk_check"
	StatusAuditRequired Status = "audit_required"
	StatusCleared       Status = "cleared"
)

var allStatuses = []Status{
	StatusDraft,
	StatusProcessing,
	StatusValidating,
	StatusRiskCheck,
	StatusAuditRequired,
	StatusCleared,
}

// rank orders statuses along the normal progression. AuditRequired sits
// between RiskCheck and Cleared so the side branch stays monotonic.
var rank = func() map[Status]int {
	m := make(map[Status]int, len(allStatuses))
	for i, status := range allStatuses {
		m[status] = i
	}
	return m
}()

type statusTransition struct {
	from Status
	to   Status
}

var allowedTransitions = map[statusTransition]struct{}{
	{from: StatusDraft, to: StatusProcessing}:        {},
	{from: StatusProcessing, to: StatusValidating}:   {},
	{from: StatusValidating, to: StatusRiskCheck}:    {},
	{from: StatusRiskCheck, to: StatusAuditRequired}: {},
	{from: StatusRiskCheck, to: StatusCleared}:       {},
	{from: StatusAuditRequired, to: StatusCleared}:   {},
}

var displayLabels = map[Status]string{
	StatusDraft:         "Draft",
	StatusProcessing:    "Processing",
	StatusValidating:    "Validating",
	StatusRiskCheck:     "Risk Check",
	StatusAuditRequired: "Audit Required",
	StatusCleared:       "Cleared",
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status. Display labels such as
// "Risk Check" are accepted as well as the canonical snake_case values.
func ParseStatus(value string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if normalized == "" {
		return "", false
	}
	status := Status(normalized)
	_, ok := rank[status]
	return status, ok
}

// CanTransition reports whether from → to is a legal single step.
func CanTransition(from, to Status) bool {
	_, ok := allowedTransitions[statusTransition{from: from, to: to}]
	return ok
}

// Before reports whether s precedes other in the progression order.
func (s Status) Before(other Status) bool {
	return rank[s] < rank[other]
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCleared
}

// IsScored reports whether a declaration in this status carries its final
// risk assessment.
func (s Status) IsScored() bool {
	return !s.Before(StatusRiskCheck)
}

// Label returns the human-readable form used by presentation layers.
func (s Status) Label() string {
	if label, ok := displayLabels[s]; ok {
		return label
	}
	return string(s)
}

// StepIndex maps a status onto the five-step swimlane shown to operators.
// AuditRequired stops visually at the risk check step.
func (s Status) StepIndex() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusProcessing:
		return 1
	case StatusValidating:
		return 2
	case StatusRiskCheck, StatusAuditRequired:
		return 3
	case StatusCleared:
		return 4
	default:
		return 0
	}
}
