package subscription

import "errors"

var (
	ErrNotFound = errors.New("subscription: subscription not found")

	// ErrNotActive is returned when a payment or cancellation targets a
	// subscription that is already cancelled. Cancellation is terminal.
	ErrNotActive = errors.New("subscription: subscription is not active")

	// ErrNotAuthorized is returned when the caller is not the subscriber the
	// record belongs to.
	ErrNotAuthorized = errors.New("subscription: caller is not the subscriber")

	// ErrAmountMismatch is returned when the enrollment payment does not
	// equal the plan price exactly. No partial first payments.
	ErrAmountMismatch = errors.New("subscription: payment amount does not match plan price")
)
