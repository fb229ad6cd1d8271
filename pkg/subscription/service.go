package subscription

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
	"github.com/dmitrymomot/billingkit/pkg/metrics"
	"github.com/dmitrymomot/billingkit/pkg/settlement"
)

// Service drives subscriptions through their lifecycle: enrollment, caller
// triggered billing, and terminal cancellation. Every transition debits,
// credits and counts in one atomic step, serialized by a service-level lock
// so concurrent calls against the same records cannot interleave.
type Service interface {
	// Subscribe enrolls subscriber into a plan. The payment amount must
	// equal the plan price exactly; the first period is credited to the
	// merchant in full and billing for the next period starts one cycle
	// from now.
	Subscribe(ctx context.Context, subscriber uuid.UUID, planID int64, amount uint64) (*Subscription, error)

	// Pay settles one billing period at the plan's current price and
	// advances the next billing date by one cycle. Only the subscriber may
	// pay; billing is pulled, so Pay may be called early, late, or never.
	Pay(ctx context.Context, caller uuid.UUID, subscriptionID int64) (*Subscription, error)

	// Cancel irreversibly ends the subscription. No refund is issued for
	// unused time; that is a product decision, not an omission.
	Cancel(ctx context.Context, caller uuid.UUID, subscriptionID int64) error

	// Get retrieves a subscription by ID.
	Get(ctx context.Context, subscriptionID int64) (*Subscription, error)
}

// Option configures the subscription service.
type Option func(*service)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source, useful in tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	// mu serializes all state transitions. A single lock is deliberate: a
	// transition spans the ledger, the catalog, the subscription store and
	// the metrics aggregator, and must appear indivisible to every caller.
	mu sync.Mutex

	store   Store
	catalog catalog.Service
	ledger  ledger.Ledger
	settle  settlement.Engine
	metrics *metrics.Aggregator
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a subscription Service.
// Panics if any required dependency is nil to fail fast during initialization.
func NewService(store Store, cat catalog.Service, led ledger.Ledger, eng settlement.Engine, agg *metrics.Aggregator, opts ...Option) Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if cat == nil {
		panic("subscription: catalog.Service is required")
	}
	if led == nil {
		panic("subscription: ledger.Ledger is required")
	}
	if eng == nil {
		panic("subscription: settlement.Engine is required")
	}
	if agg == nil {
		panic("subscription: metrics.Aggregator is required")
	}

	s := &service{
		store:   store,
		catalog: cat,
		ledger:  led,
		settle:  eng,
		metrics: agg,
		log:     slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) Subscribe(ctx context.Context, subscriber uuid.UUID, planID int64, amount uint64) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, catalog.ErrPlanInactive
	}
	if amount != plan.Price {
		return nil, ErrAmountMismatch
	}

	// Claim the subscriber slot first; the limit check happens atomically
	// inside the catalog. Nothing has moved yet if it fails.
	if _, err := s.catalog.IncrementSubscribers(ctx, planID); err != nil {
		return nil, err
	}

	// First period goes to the merchant in full; the platform fee applies
	// from the second settlement on.
	if err := s.ledger.Transfer(ctx, subscriber, plan.MerchantID, amount); err != nil {
		// Release the claimed slot so the failed enrollment leaves no trace.
		if decErr := s.catalog.DecrementSubscribers(ctx, planID); decErr != nil {
			s.log.ErrorContext(ctx, "failed to release subscriber slot after enrollment failure",
				slog.Int64("plan_id", planID),
				slog.Any("error", decErr))
		}
		return nil, err
	}

	now := s.now()
	sub := &Subscription{
		SubscriberID:  subscriber,
		PlanID:        planID,
		MerchantID:    plan.MerchantID, // snapshot from the catalog, not the caller
		Status:        StatusActive,
		StartedAt:     now,
		NextBillingAt: now.Add(plan.BillingCycle),
		TotalPaid:     amount,
	}

	id, err := s.store.Create(ctx, sub)
	if err != nil {
		// Undo the payment and the claimed slot; a failed enrollment must
		// not keep the subscriber's money.
		if refundErr := s.ledger.Transfer(ctx, plan.MerchantID, subscriber, amount); refundErr != nil {
			s.log.ErrorContext(ctx, "failed to refund enrollment payment after persistence failure",
				slog.Int64("plan_id", planID),
				slog.Any("error", refundErr))
		}
		if decErr := s.catalog.DecrementSubscribers(ctx, planID); decErr != nil {
			s.log.ErrorContext(ctx, "failed to release subscriber slot after persistence failure",
				slog.Int64("plan_id", planID),
				slog.Any("error", decErr))
		}
		return nil, err
	}
	sub.ID = id

	s.metrics.RecordSubscribe(plan.MerchantID)

	s.log.InfoContext(ctx, "subscription created",
		slog.Int64("subscription_id", id),
		slog.Int64("plan_id", planID),
		slog.String("subscriber_id", subscriber.String()))

	return sub, nil
}

func (s *service) Pay(ctx context.Context, caller uuid.UUID, subscriptionID int64) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.store.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriberID != caller {
		return nil, ErrNotAuthorized
	}
	if !sub.IsActive() {
		return nil, ErrNotActive
	}

	// Bill at the plan's current price, not the enrollment price.
	plan, err := s.catalog.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	tx, err := s.settle.Settle(ctx, settlement.Request{
		SubscriberID:   sub.SubscriberID,
		MerchantID:     sub.MerchantID,
		PlanID:         sub.PlanID,
		SubscriptionID: sub.ID,
		Amount:         plan.Price,
		Currency:       plan.Currency,
	})
	if err != nil {
		return nil, err
	}

	sub.NextBillingAt = sub.NextBillingAt.Add(plan.BillingCycle)
	sub.TotalPaid += plan.Price

	if err := s.store.Save(ctx, sub); err != nil {
		// The period was paid but not recorded; reverse the settlement so a
		// retry does not charge the same period twice.
		if revErr := s.settle.Reverse(ctx, tx); revErr != nil {
			s.log.ErrorContext(ctx, "failed to reverse settlement after persistence failure",
				slog.Int64("subscription_id", sub.ID),
				slog.Any("error", revErr))
		}
		return nil, err
	}

	s.metrics.RecordPayment(sub.MerchantID, plan.Price)

	s.log.InfoContext(ctx, "subscription billed",
		slog.Int64("subscription_id", sub.ID),
		slog.Uint64("amount", plan.Price),
		slog.Time("next_billing_at", sub.NextBillingAt))

	return sub, nil
}

func (s *service) Cancel(ctx context.Context, caller uuid.UUID, subscriptionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.store.Get(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.SubscriberID != caller {
		return ErrNotAuthorized
	}
	if !sub.IsActive() {
		// Terminal state: a second cancel must fail and metrics must not
		// move again.
		return ErrNotActive
	}

	now := s.now()
	sub.Status = StatusCancelled
	sub.CancelledAt = &now

	if err := s.store.Save(ctx, sub); err != nil {
		return err
	}

	if err := s.catalog.DecrementSubscribers(ctx, sub.PlanID); err != nil {
		s.log.ErrorContext(ctx, "failed to decrement plan subscribers on cancel",
			slog.Int64("plan_id", sub.PlanID),
			slog.Any("error", err))
	}

	s.metrics.RecordCancel(sub.MerchantID)

	s.log.InfoContext(ctx, "subscription cancelled",
		slog.Int64("subscription_id", sub.ID),
		slog.String("subscriber_id", caller.String()))

	return nil
}

func (s *service) Get(ctx context.Context, subscriptionID int64) (*Subscription, error) {
	return s.store.Get(ctx, subscriptionID)
}
