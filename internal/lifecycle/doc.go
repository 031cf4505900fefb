// Package lifecycle drives customs declarations through
// Draft → Processing → Validating → RiskCheck → {AuditRequired →} Cleared.
//
// Each declaration owns at most one pending timer on the injected scheduler.
// Arming a new timer cancels the previous one, and a generation counter turns
// any callback that loses that race into a no-op. Declarations scoring above
// the audit threshold are handed to the audit queue and only clear once the
// queue reports completion through OnExternalCompletion.
package lifecycle
