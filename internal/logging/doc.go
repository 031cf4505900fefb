// Package logging assembles the slog loggers used across customsflow.
//
// It owns the console and JSON handlers, level parsing and output routing,
// and the shared field keys so lifecycle, audit and feed components tag their
// lines the same way. Context helpers carry the declaration under work so
// nested calls pick it up without threading extra arguments.
package logging
