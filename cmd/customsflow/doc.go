// Package main hosts the customsflow CLI entrypoint and command graph.
//
// Every command that touches the desk starts an in-process operator session,
// so the CLI doubles as the simulation harness: `simulate` pushes sample
// declarations through the lifecycle and audit queue, `feed` observes the
// anomaly stream, and `history` reads the journal the sessions leave behind.
package main
