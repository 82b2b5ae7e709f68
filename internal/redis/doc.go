// Package redis provides the Redis-backed pub/sub used for best-effort
// fanout of team messages. The autofill orchestrator itself never touches
// Redis; session state lives in process memory.
package redis
