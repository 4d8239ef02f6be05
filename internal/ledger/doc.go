// Package ledger provides SQLite-backed durable storage for conservation
// audit records.
//
// The ledger is an append-only log of domain lifecycle events (attach,
// verify, commit) and witness generations. Each record is content-addressed:
// its ID is a SHA-256 hash with domain separation over the record's logical
// fields, so replaying the same run produces the same IDs and duplicate
// writes are silently idempotent.
//
// Ordering uses seq INTEGER from a logical clock, never timestamps, and all
// queries order by seq ASC, id ASC COLLATE BINARY so read-back is
// deterministic across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package ledger
