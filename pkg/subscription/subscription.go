package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	// StatusActive means the subscription bills on its cycle. A past-due
	// subscription stays active until paid or cancelled; billing is pulled
	// by the caller, never pushed by a scheduler.
	StatusActive Status = "active"

	// StatusCancelled is terminal. Records are kept, never deleted, so
	// historical metrics stay reconcilable.
	StatusCancelled Status = "cancelled"
)

// Subscription tracks one subscriber's enrollment in a plan.
//
// MerchantID is a snapshot taken from the plan catalog at enrollment time,
// never caller-supplied, so the merchant of record cannot be spoofed and
// survives later plan mutations.
type Subscription struct {
	ID            int64
	SubscriberID  uuid.UUID
	PlanID        int64
	MerchantID    uuid.UUID
	Status        Status
	StartedAt     time.Time
	NextBillingAt time.Time
	// TotalPaid accumulates every settled amount including the enrollment
	// payment.
	TotalPaid   uint64
	CancelledAt *time.Time
}

// IsActive reports whether the subscription can be paid or cancelled.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsDueAt reports whether the next billing date has passed at the given
// time. A due subscription is eligible for Pay but is not expired; the
// ledger uses lazy pull billing.
func (s *Subscription) IsDueAt(now time.Time) bool {
	return s.IsActive() && !now.Before(s.NextBillingAt)
}
