// Package settlement moves subscription payments merchant-ward with a
// platform fee split and keeps the immutable transaction audit trail.
//
// A settlement is one atomic step: debit the subscriber by the plan price,
// credit the merchant share and the platform share together through the
// ledger's multi-leg split, and append a Transaction record. A failed
// settlement never leaves the subscriber debited without the merchant
// credited or vice versa - both legs commit or neither does.
//
// # Fee split
//
// FeeSplit truncates the platform share down, so rounding favors the
// merchant and the two shares always sum exactly to the price:
//
//	platformShare = price * feePercent / 100
//	merchantShare = price - platformShare
//
// The fee percent is process-wide engine state, mutable only by callers
// holding the admin role, and applies to settlements computed after the
// change.
//
// # Transaction log
//
// Transactions are append-only with monotonically increasing IDs. A
// settlement whose dependent state could not be persisted is compensated via
// Reverse: the recorded shares move back to the subscriber and a reversed
// entry is appended, so revenue folds net out to what actually stuck. Two
// store implementations ship: an in-memory store and a PostgreSQL store (pgx)
// with goose-managed migrations for a durable audit log.
package settlement
