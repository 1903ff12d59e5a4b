// Package simbus provides an in-memory implementation of ecat.Stack: a
// simulated bus with a configurable set of drive slaves, deterministic state
// transitions and working-counter accounting, plus fault injection for
// dropouts, transport failures and stale group state reads.
//
// It backs the package tests, the cyclic example and the ecatdiag harness.
// No frames leave the process.
package simbus
