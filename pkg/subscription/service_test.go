package subscription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/authgate"
	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
	"github.com/dmitrymomot/billingkit/pkg/metrics"
	"github.com/dmitrymomot/billingkit/pkg/settlement"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

type fixture struct {
	ledger   ledger.Ledger
	catalog  catalog.Service
	engine   settlement.Engine
	metrics  *metrics.Aggregator
	subs     subscription.Service
	store    *subscription.MemStore
	txs      *settlement.MemStore
	gate     *authgate.MemoryGate
	platform uuid.UUID
	merchant uuid.UUID
	now      time.Time
}

func newFixture(t *testing.T, feePercent uint8) *fixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	gate := authgate.NewMemoryGate()
	merchant := uuid.New()
	gate.Grant(merchant, authgate.RoleMerchant)

	l := ledger.New(ledger.TransferFunc(func(ctx context.Context, account uuid.UUID, amount uint64) error {
		return nil
	}))
	cat := catalog.NewService(catalog.NewMemStore(), gate, catalog.WithClock(clock))
	txs := settlement.NewMemStore()
	platform := uuid.New()
	eng := settlement.NewEngine(l, txs, gate, platform,
		settlement.WithFeePercent(feePercent),
		settlement.WithClock(clock))
	agg := metrics.NewAggregator()
	store := subscription.NewMemStore()
	subs := subscription.NewService(store, cat, l, eng, agg, subscription.WithClock(clock))

	return &fixture{
		ledger:   l,
		catalog:  cat,
		engine:   eng,
		metrics:  agg,
		subs:     subs,
		store:    store,
		txs:      txs,
		gate:     gate,
		platform: platform,
		merchant: merchant,
		now:      now,
	}
}

func (f *fixture) createPlan(t *testing.T, price uint64, cycle time.Duration, limit uint32) *catalog.Plan {
	t.Helper()

	plan, err := f.catalog.CreatePlan(context.Background(), f.merchant, catalog.CreatePlanInput{
		Name:            "Premium",
		Price:           price,
		Currency:        "USD",
		BillingCycle:    cycle,
		SubscriberLimit: limit,
	})
	require.NoError(t, err)
	return plan
}

func (f *fixture) balance(t *testing.T, account uuid.UUID) uint64 {
	t.Helper()

	balance, err := f.ledger.Balance(context.Background(), account)
	if err != nil {
		return 0
	}
	return balance
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("enrolls and credits the merchant the full first period", func(t *testing.T) {
		t.Parallel()

		// Deposit 100, subscribe to a 100/30d plan: balance 0, merchant +100,
		// active subscription due in 30 days.
		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, 30*24*time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 100))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, f.merchant, sub.MerchantID)
		assert.Equal(t, f.now.Add(30*24*time.Hour), sub.NextBillingAt)
		assert.Equal(t, uint64(100), sub.TotalPaid)

		assert.Equal(t, uint64(0), f.balance(t, subscriber))
		assert.Equal(t, uint64(100), f.balance(t, f.merchant))

		got, err := f.catalog.GetPlan(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), got.SubscriberCount)

		m := f.metrics.Get(f.merchant)
		assert.Equal(t, uint64(1), m.TotalSubscribers)
		assert.Equal(t, uint64(1), m.ActiveSubscribers)
	})

	t.Run("rejects amount mismatch", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 200))

		_, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 99)
		assert.ErrorIs(t, err, subscription.ErrAmountMismatch)
		assert.Equal(t, uint64(200), f.balance(t, subscriber))
	})

	t.Run("rejects inactive plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)
		require.NoError(t, f.catalog.SetActive(context.Background(), f.merchant, plan.ID, false))

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 100))

		_, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		assert.ErrorIs(t, err, catalog.ErrPlanInactive)
	})

	t.Run("enforces subscriber limit", func(t *testing.T) {
		t.Parallel()

		// Limit 1: the second subscriber is rejected and the count stays 1.
		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 1)

		first, second := uuid.New(), uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), first, 100))
		require.NoError(t, f.ledger.Deposit(context.Background(), second, 100))

		_, err := f.subs.Subscribe(context.Background(), first, plan.ID, 100)
		require.NoError(t, err)

		_, err = f.subs.Subscribe(context.Background(), second, plan.ID, 100)
		assert.ErrorIs(t, err, catalog.ErrSubscriberLimitReached)

		got, err := f.catalog.GetPlan(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), got.SubscriberCount)
		assert.Equal(t, uint64(100), f.balance(t, second))
	})

	t.Run("releases the slot when the payment fails", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 1)

		broke := uuid.New()
		_, err := f.subs.Subscribe(context.Background(), broke, plan.ID, 100)
		require.ErrorIs(t, err, ledger.ErrAccountNotFound)

		got, err := f.catalog.GetPlan(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), got.SubscriberCount)
	})

	t.Run("refunds the payment when the record cannot be created", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 1)

		createErr := errors.New("insert failed")
		subs := subscription.NewService(
			faultyStore{Store: subscription.NewMemStore(), createErr: createErr},
			f.catalog, f.ledger, f.engine, f.metrics)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 100))

		_, err := subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.ErrorIs(t, err, createErr)

		// Money returned, slot released, nothing counted.
		assert.Equal(t, uint64(100), f.balance(t, subscriber))
		assert.Equal(t, uint64(0), f.balance(t, f.merchant))

		got, err := f.catalog.GetPlan(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), got.SubscriberCount)
		assert.Equal(t, uint64(0), f.metrics.Get(f.merchant).TotalSubscribers)
	})
}

func TestPay(t *testing.T) {
	t.Parallel()

	t.Run("settles with fee split and advances the due date", func(t *testing.T) {
		t.Parallel()

		// Fee 2%, price 100: merchant +98, platform +2, revenue +100.
		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, 30*24*time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 200))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)
		firstDue := sub.NextBillingAt

		paid, err := f.subs.Pay(context.Background(), subscriber, sub.ID)
		require.NoError(t, err)

		assert.Equal(t, firstDue.Add(30*24*time.Hour), paid.NextBillingAt)
		assert.Equal(t, uint64(200), paid.TotalPaid)

		assert.Equal(t, uint64(0), f.balance(t, subscriber))
		assert.Equal(t, uint64(100+98), f.balance(t, f.merchant))
		assert.Equal(t, uint64(2), f.balance(t, f.platform))

		tx, err := f.txs.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, settlement.StatusSuccessful, tx.Status)
		assert.Equal(t, uint64(100), tx.Amount)
		assert.Equal(t, sub.ID, tx.SubscriptionID)

		m := f.metrics.Get(f.merchant)
		assert.Equal(t, uint64(100), m.TotalRevenue)
		assert.Equal(t, uint64(100), m.PeriodRevenue)
	})

	t.Run("insufficient funds changes nothing", func(t *testing.T) {
		t.Parallel()

		// Balance 50 vs price 100: failure with no transaction appended.
		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 150))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)
		dueBefore := sub.NextBillingAt

		_, err = f.subs.Pay(context.Background(), subscriber, sub.ID)
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		after, err := f.subs.Get(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, dueBefore, after.NextBillingAt)
		assert.Equal(t, uint64(100), after.TotalPaid)
		assert.Equal(t, uint64(50), f.balance(t, subscriber))

		_, err = f.txs.Get(context.Background(), 1)
		assert.ErrorIs(t, err, settlement.ErrTransactionNotFound)

		m := f.metrics.Get(f.merchant)
		assert.Equal(t, uint64(0), m.TotalRevenue)
	})

	t.Run("only the subscriber may pay", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)

		subscriber, stranger := uuid.New(), uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 200))
		require.NoError(t, f.ledger.Deposit(context.Background(), stranger, 200))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)

		_, err = f.subs.Pay(context.Background(), stranger, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrNotAuthorized)
	})

	t.Run("bills the plan's current price", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 0)
		plan := f.createPlan(t, 100, time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 300))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)

		require.NoError(t, f.catalog.SetPrice(context.Background(), f.merchant, plan.ID, 150))

		paid, err := f.subs.Pay(context.Background(), subscriber, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(250), paid.TotalPaid)
		assert.Equal(t, uint64(50), f.balance(t, subscriber))
	})

	t.Run("reverses the settlement when the record cannot be saved", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)

		saveErr := errors.New("update failed")
		store := &faultyStore{Store: subscription.NewMemStore(), saveErr: saveErr}
		subs := subscription.NewService(store, f.catalog, f.ledger, f.engine, f.metrics,
			subscription.WithClock(func() time.Time { return f.now }))

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 200))

		sub, err := subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)
		dueBefore := sub.NextBillingAt

		_, err = subs.Pay(context.Background(), subscriber, sub.ID)
		require.ErrorIs(t, err, saveErr)

		// Settlement undone, so a retry cannot charge the same period twice.
		assert.Equal(t, uint64(100), f.balance(t, subscriber))
		assert.Equal(t, uint64(100), f.balance(t, f.merchant))
		assert.Equal(t, uint64(0), f.balance(t, f.platform))

		after, err := subs.Get(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, dueBefore, after.NextBillingAt)
		assert.Equal(t, uint64(100), after.TotalPaid)

		rev, err := f.txs.Get(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, settlement.StatusReversed, rev.Status)

		assert.Equal(t, uint64(0), f.metrics.Get(f.merchant).TotalRevenue)
	})

	t.Run("cancelled subscription cannot be paid", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 300))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)
		require.NoError(t, f.subs.Cancel(context.Background(), subscriber, sub.ID))

		_, err = f.subs.Pay(context.Background(), subscriber, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrNotActive)
	})
}

func TestCancel(t *testing.T) {
	t.Parallel()

	t.Run("terminal with single metrics update", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 100))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)

		require.NoError(t, f.subs.Cancel(context.Background(), subscriber, sub.ID))

		got, err := f.subs.Get(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, got.Status)
		require.NotNil(t, got.CancelledAt)
		assert.Equal(t, f.now, *got.CancelledAt)

		// Second cancel fails and metrics move exactly once.
		err = f.subs.Cancel(context.Background(), subscriber, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrNotActive)

		m := f.metrics.Get(f.merchant)
		assert.Equal(t, uint64(1), m.TotalSubscribers)
		assert.Equal(t, uint64(0), m.ActiveSubscribers)
		assert.Equal(t, uint64(1), m.Churned)

		gotPlan, err := f.catalog.GetPlan(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), gotPlan.SubscriberCount)
	})

	t.Run("only the subscriber may cancel", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, 2)
		plan := f.createPlan(t, 100, time.Hour, 0)

		subscriber := uuid.New()
		require.NoError(t, f.ledger.Deposit(context.Background(), subscriber, 100))

		sub, err := f.subs.Subscribe(context.Background(), subscriber, plan.ID, 100)
		require.NoError(t, err)

		err = f.subs.Cancel(context.Background(), uuid.New(), sub.ID)
		assert.ErrorIs(t, err, subscription.ErrNotAuthorized)
	})
}

func TestIsDueAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sub := &subscription.Subscription{
		Status:        subscription.StatusActive,
		NextBillingAt: now.Add(24 * time.Hour),
	}

	assert.False(t, sub.IsDueAt(now))
	assert.True(t, sub.IsDueAt(now.Add(24*time.Hour)))
	assert.True(t, sub.IsDueAt(now.Add(48*time.Hour)))

	sub.Status = subscription.StatusCancelled
	assert.False(t, sub.IsDueAt(now.Add(48*time.Hour)))
}

type faultyStore struct {
	subscription.Store
	createErr error
	saveErr   error
}

func (s faultyStore) Create(ctx context.Context, sub *subscription.Subscription) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	return s.Store.Create(ctx, sub)
}

func (s faultyStore) Save(ctx context.Context, sub *subscription.Subscription) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, sub)
}
