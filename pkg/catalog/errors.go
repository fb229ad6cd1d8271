package catalog

import "errors"

var (
	ErrPlanNotFound           = errors.New("catalog: plan not found")
	ErrPlanInactive           = errors.New("catalog: plan is not active")
	ErrSubscriberLimitReached = errors.New("catalog: plan subscriber limit reached")
	ErrNotPlanOwner           = errors.New("catalog: caller does not own the plan")
	ErrNotMerchant            = errors.New("catalog: caller is not an approved merchant")

	ErrInvalidPrice        = errors.New("catalog: plan price must be greater than zero")
	ErrInvalidBillingCycle = errors.New("catalog: billing cycle must be greater than zero")
	ErrMissingCurrency     = errors.New("catalog: currency is required")
	ErrMissingName         = errors.New("catalog: plan name is required")

	ErrNoSubscribers = errors.New("catalog: plan has no subscribers to remove")

	ErrFailedToLoadPlans = errors.New("catalog: failed to load plans")
)
