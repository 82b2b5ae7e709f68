// Package database implements the domain repositories backed by PostgreSQL.
//
// These are thin persistence wrappers: hand-written SQL over a pgx pool,
// pgx.ErrNoRows mapped to domain sentinel errors, everything else wrapped
// with context. The orchestrator consumes them only to resolve fill data,
// resume recommendations, and assignment conflicts.
package database
