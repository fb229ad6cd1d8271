package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/authgate"
)

// Plan describes a recurring offer a merchant bills subscribers against.
// Price and Active are mutated only by the owning merchant; SubscriberCount
// is mutated only by the subscription state machine.
type Plan struct {
	ID          int64
	MerchantID  uuid.UUID
	Name        string
	Description string
	Price       uint64 // smallest currency unit, always > 0
	Currency    string // ISO 4217 currency code
	// BillingCycle is the duration after which a subscription becomes
	// eligible for its next payment.
	BillingCycle    time.Duration
	Active          bool
	SubscriberCount uint32
	// SubscriberLimit caps concurrent subscribers. Zero means unlimited.
	SubscriberLimit uint32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Resource returns the authorization resource key for the plan.
func (p *Plan) Resource() authgate.Resource {
	return PlanResource(p.ID)
}

// HasCapacity reports whether the plan can accept one more subscriber.
func (p *Plan) HasCapacity() bool {
	return p.SubscriberLimit == 0 || p.SubscriberCount < p.SubscriberLimit
}

// PlanResource builds the authorization resource key for a plan ID.
func PlanResource(id int64) authgate.Resource {
	return authgate.Resource(fmt.Sprintf("plan:%d", id))
}

// CreatePlanInput carries the caller-supplied fields for a new plan.
type CreatePlanInput struct {
	Name            string
	Description     string
	Price           uint64
	Currency        string
	BillingCycle    time.Duration
	SubscriberLimit uint32
}

// Validate rejects invalid input before any state mutation.
func (in CreatePlanInput) Validate() error {
	if in.Name == "" {
		return ErrMissingName
	}
	if in.Price == 0 {
		return ErrInvalidPrice
	}
	if in.Currency == "" {
		return ErrMissingCurrency
	}
	if in.BillingCycle <= 0 {
		return ErrInvalidBillingCycle
	}
	return nil
}
