// Package metrics maintains per-merchant subscriber and revenue counters
// derived from subscription lifecycle events. Counters are updated
// incrementally, exactly once per event, never recomputed on the primary
// path; Reconciler offers an optional drift check against the subscription
// and transaction logs.
package metrics
