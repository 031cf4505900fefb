package logging

// Standard attribute keys.
const (
	FieldComponent     = "component"
	FieldDeclarationID = "declaration_id"
	FieldTransactionID = "transaction_id"
	FieldStatus        = "status"
	FieldFromStatus    = "from_status"
	FieldRiskScore     = "risk_score"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
	FieldAlert         = "alert"
)
