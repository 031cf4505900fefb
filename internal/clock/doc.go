// Package clock abstracts the passage of time for the declaration pipeline.
//
// Every stage delay, audit adjudication and feed tick is expressed as a
// Scheduler.After call. Production wires Real, which delegates to
// time.AfterFunc; tests wire Virtual and call Advance to fire callbacks in
// due-time order without sleeping.
package clock
