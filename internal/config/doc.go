// Package config loads, normalizes, and validates customsflow configuration.
//
// It supplies defaults for every stage delay and threshold, expands user paths
// (including tilde shortcuts), reads TOML files, and honours environment
// fallbacks such as CUSTOMSFLOW_NTFY_TOPIC. Always obtain settings through
// this package so the engine, queue and feed receive sanitized values.
package config
