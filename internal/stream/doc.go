// Package stream pushes live browser screenshots to websocket viewers at a
// fixed frame rate. A single actor goroutine owns all viewer state; each
// session has at most one viewer and a new connection displaces the old one.
package stream
