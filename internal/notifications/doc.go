// Package notifications delivers declaration milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Message text is
// localized through a golang.org/x/text catalog (English and Chinese).
//
// The Dispatcher bridges the event bus to a Service so the lifecycle engine
// and audit queue never talk HTTP directly.
package notifications
