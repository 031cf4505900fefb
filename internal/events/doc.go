// Package events is the in-process publish/subscribe surface between the
// pipeline components and their observers.
//
// Publishers never block: every subscription owns an unbounded FIFO and a
// pump goroutine that drains it into the subscriber's channel. Fan-out
// happens under the bus lock, so every subscriber sees events in emission
// order and Seq is strictly increasing across the bus.
package events
