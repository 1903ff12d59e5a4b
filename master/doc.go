// Package master implements the device session lifecycle and the cyclic
// process data exchange engine on top of an ecat.Stack.
//
// A Session owns the process image, drives the bus through the Init ->
// PreOp -> SafeOp -> Operational bring-up ladder, performs bounded-latency
// send/receive rounds with working-counter validation, and restores the
// operational state after transient faults.
//
// A Session and its process image are not safe for concurrent use. All
// operations against one Session must be serialized by the caller; the
// engine is purely synchronous and spawns no goroutines. Independent
// sessions on distinct adapters may run on separate goroutines.
package master
