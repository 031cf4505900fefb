// Package customs defines the shared vocabulary of the declaration pipeline.
//
// Declarations move through the Status enum declared here; the lifecycle
// engine is the only writer of Status, the audit queue owns AuditTask values,
// and the anomaly feed produces AnomalyEvent values. Keeping the types in one
// leaf package lets the engine, queue, feed, bus and journal agree on names
// without importing each other.
//
// Errors returned across component boundaries wrap the sentinels in errors.go
// so callers can branch with errors.Is regardless of which component failed.
package customs
