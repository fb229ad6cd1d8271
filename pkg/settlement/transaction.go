package settlement

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a settlement attempt.
type Status string

const (
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"

	// StatusReversed marks a compensating entry: the shares of an earlier
	// successful transaction were returned to the subscriber because state
	// depending on the settlement could not be persisted.
	StatusReversed Status = "reversed"
)

// Transaction is one immutable entry in the settlement audit trail. Records
// are append-only: once written they are never updated or deleted.
//
// MerchantShare and PlatformShare record the split computed at settlement
// time, so a reversal moves back exactly what moved even if the fee percent
// changed since.
type Transaction struct {
	ID             int64
	SubscriberID   uuid.UUID
	MerchantID     uuid.UUID
	PlanID         int64
	SubscriptionID int64
	Amount         uint64
	MerchantShare  uint64
	PlatformShare  uint64
	Currency       string
	Status         Status
	CreatedAt      time.Time
}
