// Package session runs one operator's customs desk as a single process.
//
// It wires the scheduler, event bus, lifecycle engine, audit queue, anomaly
// feed, journal recorder, notification dispatcher and metrics endpoint into a
// single lifecycle, and holds a flock on the state directory so two operators
// never share one queue. Business rules live in their own packages; this
// package only starts, stops and connects them.
package session
