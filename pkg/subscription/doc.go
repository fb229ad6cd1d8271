// Package subscription implements the subscription lifecycle state machine
// of the billing core.
//
// A subscription has two states: Active and Cancelled (terminal). There is
// no pending or expired state and no background scheduler - billing is a
// pull model. A subscription whose next billing date has passed stays
// Active until the subscriber pays or cancels; time advancement is only
// observed when Pay runs with the then-current clock.
//
// # Transitions
//
//   - Subscribe: plan must be active with a free subscriber slot and the
//     payment must equal the plan price. The first period is credited to the
//     merchant in full; the platform fee applies from the second settlement.
//   - Pay: subscriber only, active only. Delegates the money movement to the
//     settlement engine, advances the next billing date by one cycle, and
//     records revenue metrics - all within one serialized step.
//   - Cancel: subscriber only, irreversible. Frees the plan's subscriber
//     slot and counts churn. Records are kept forever; cancellation is a
//     status change, not a deletion. No refund for unused time.
//
// Every transition updates the ledger, the catalog, and the merchant
// metrics inside the same critical section, so a failure mid-operation
// leaves no partial state behind.
package subscription
