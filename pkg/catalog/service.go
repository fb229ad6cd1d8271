package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/authgate"
)

// Service defines the public interface for plan catalog management.
type Service interface {
	// CreatePlan registers a new plan owned by caller. The caller must hold
	// the merchant role.
	CreatePlan(ctx context.Context, caller uuid.UUID, in CreatePlanInput) (*Plan, error)

	// GetPlan retrieves a plan by ID.
	GetPlan(ctx context.Context, id int64) (*Plan, error)

	// SetActive toggles the plan's active flag. Owning merchant only.
	SetActive(ctx context.Context, caller uuid.UUID, id int64, active bool) error

	// SetPrice changes the plan price for future billing. Owning merchant only.
	SetPrice(ctx context.Context, caller uuid.UUID, id int64, price uint64) error

	// IncrementSubscribers adds one subscriber, enforcing the subscriber
	// limit. Called only by the subscription state machine.
	IncrementSubscribers(ctx context.Context, id int64) (*Plan, error)

	// DecrementSubscribers removes one subscriber. Called only by the
	// subscription state machine.
	DecrementSubscribers(ctx context.Context, id int64) error
}

// Option configures the catalog service.
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
	store Store
	gate  authgate.Gate
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a catalog Service.
// Panics if store or gate is nil to fail fast during initialization.
func NewService(store Store, gate authgate.Gate, opts ...Option) Service {
	if store == nil {
		panic("catalog: Store is required")
	}
	if gate == nil {
		panic("catalog: authgate.Gate is required")
	}

	s := &service{
		store: store,
		gate:  gate,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) CreatePlan(ctx context.Context, caller uuid.UUID, in CreatePlanInput) (*Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	approved, err := s.gate.HasRole(ctx, caller, authgate.RoleMerchant)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrNotMerchant
	}

	now := s.now()
	plan := &Plan{
		MerchantID:      caller,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Currency:        in.Currency,
		BillingCycle:    in.BillingCycle,
		Active:          true,
		SubscriberLimit: in.SubscriberLimit,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	id, err := s.store.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = id

	s.log.InfoContext(ctx, "plan created",
		slog.Int64("plan_id", id),
		slog.String("merchant_id", caller.String()),
		slog.Uint64("price", plan.Price))

	return plan, nil
}

func (s *service) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	return s.store.Get(ctx, id)
}

func (s *service) SetActive(ctx context.Context, caller uuid.UUID, id int64, active bool) error {
	_, err := s.store.Update(ctx, id, func(plan *Plan) error {
		if plan.MerchantID != caller {
			return ErrNotPlanOwner
		}
		plan.Active = active
		plan.UpdatedAt = s.now()
		return nil
	})
	return err
}

func (s *service) SetPrice(ctx context.Context, caller uuid.UUID, id int64, price uint64) error {
	if price == 0 {
		return ErrInvalidPrice
	}

	_, err := s.store.Update(ctx, id, func(plan *Plan) error {
		if plan.MerchantID != caller {
			return ErrNotPlanOwner
		}
		plan.Price = price
		plan.UpdatedAt = s.now()
		return nil
	})
	return err
}

func (s *service) IncrementSubscribers(ctx context.Context, id int64) (*Plan, error) {
	return s.store.Update(ctx, id, func(plan *Plan) error {
		if !plan.HasCapacity() {
			return ErrSubscriberLimitReached
		}
		plan.SubscriberCount++
		return nil
	})
}

func (s *service) DecrementSubscribers(ctx context.Context, id int64) error {
	_, err := s.store.Update(ctx, id, func(plan *Plan) error {
		if plan.SubscriberCount == 0 {
			return ErrNoSubscribers
		}
		plan.SubscriberCount--
		return nil
	})
	return err
}
