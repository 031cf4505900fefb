// Package auditqueue holds declarations awaiting human review.
//
// Entries keep arrival order; scoring above the high-risk cutoff only marks an
// entry urgent. One entry is selected at a time and the queue runs a single
// Idle → Auditing → Completed workflow for the whole desk, so at most one
// declaration is ever under audit. Finalizing removes the entry and tells the
// lifecycle engine the declaration may clear.
package auditqueue
