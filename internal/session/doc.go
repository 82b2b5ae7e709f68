// Package session implements the autofill session orchestrator: the
// in-memory registry of live browser handles and the lifecycle manager that
// validates and applies state transitions (OPEN → ANALYZED → FILLED →
// SUBMITTED), driving the browser layer as a side effect of each one.
package session
