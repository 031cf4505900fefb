// Package journal keeps an append-only SQLite record of lifecycle
// transitions and audit completions.
//
// The Recorder drains a bus subscription into the Store so operators can
// review a declaration's history after the session ends. The journal is an
// audit trail only; engine and queue state never reload from it.
package journal
