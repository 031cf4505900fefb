package customs

import (
	"fmt"
	"time"
)

// Urgency flags how quickly an audit task needs operator attention.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

// AuditTask is a unit of human review work derived from a declaration in
// AuditRequired. The audit queue owns every task it holds.
type AuditTask struct {
	ID             string
	DeclarationID  string
	Title          string
	Description    string
	ActionRequired string
	Urgency        Urgency
	CreatedAt      time.Time
}

// NewAuditTask derives the review task for a declaration. Declarations above
// the high-risk cutoff are marked urgent; the flag never changes ordering.
func NewAuditTask(id string, decl Declaration, highRiskCutoff int, now time.Time) AuditTask {
	urgency := UrgencyNormal
	if decl.IsHighRisk(highRiskCutoff) {
		urgency = UrgencyUrgent
	}
	return AuditTask{
		ID:            id,
		DeclarationID: decl.ID,
		Title:         fmt.Sprintf("Review %s declaration %s", decl.CompanyName, decl.ID),
		Description: fmt.Sprintf("%s (HS %s), %.2f %s, risk score %d/%d: %s",
			decl.GoodsType, decl.HSCode, decl.Amount, decl.Currency,
			decl.RiskScore, MaxRiskScore, decl.PrimaryAnomaly()),
		ActionRequired: "Inspect attached documents and adjudicate the flagged anomalies",
		Urgency:        urgency,
		CreatedAt:      now,
	}
}

// AuditState is the operator's progress on the currently selected entry.
type AuditState string

const (
	AuditIdle      AuditState = "idle"
	AuditAuditing  AuditState = "auditing"
	AuditCompleted AuditState = "completed"
)
