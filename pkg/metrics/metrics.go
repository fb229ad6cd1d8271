package metrics

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MerchantMetrics is the derived per-merchant counter set. It must always
// equal a fold over the merchant's subscription and transaction records; the
// aggregator maintains it incrementally, one update per state-changing event.
type MerchantMetrics struct {
	TotalSubscribers  uint64
	ActiveSubscribers uint64
	TotalRevenue      uint64
	PeriodRevenue     uint64
	Churned           uint64
}

// SubscriptionSource folds subscription records into counters for
// reconciliation. Implemented by the subscription store.
type SubscriptionSource interface {
	MerchantSubscriptionStats(ctx context.Context, merchantID uuid.UUID) (total, active, churned uint64, err error)
}

// RevenueSource folds successful settlement records into total revenue for
// reconciliation. Implemented by the transaction store.
type RevenueSource interface {
	MerchantRevenue(ctx context.Context, merchantID uuid.UUID) (uint64, error)
}

// Aggregator keeps per-merchant metrics. All Record methods are O(1)
// increments; callers invoke each exactly once per subscribe, payment or
// cancel event, inside the same critical section as the triggering
// operation.
type Aggregator struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*MerchantMetrics
}

// NewAggregator creates an empty metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		merchants: make(map[uuid.UUID]*MerchantMetrics),
	}
}

// RecordSubscribe counts a new active subscriber for the merchant.
func (a *Aggregator) RecordSubscribe(merchantID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := a.metrics(merchantID)
	m.TotalSubscribers++
	m.ActiveSubscribers++
}

// RecordPayment adds a settled payment amount to the merchant's revenue.
func (a *Aggregator) RecordPayment(merchantID uuid.UUID, amount uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := a.metrics(merchantID)
	m.TotalRevenue += amount
	m.PeriodRevenue += amount
}

// RecordCancel counts a churned subscriber for the merchant.
func (a *Aggregator) RecordCancel(merchantID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := a.metrics(merchantID)
	if m.ActiveSubscribers > 0 {
		m.ActiveSubscribers--
	}
	m.Churned++
}

// ResetPeriod zeroes the merchant's period revenue at a billing period
// rollover. Total revenue is untouched.
func (a *Aggregator) ResetPeriod(merchantID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics(merchantID).PeriodRevenue = 0
}

// Get returns a copy of the merchant's metrics. Unknown merchants report
// zeroes.
func (a *Aggregator) Get(merchantID uuid.UUID) MerchantMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if m, ok := a.merchants[merchantID]; ok {
		return *m
	}
	return MerchantMetrics{}
}

// metrics must be called with the mutex held.
func (a *Aggregator) metrics(merchantID uuid.UUID) *MerchantMetrics {
	m, ok := a.merchants[merchantID]
	if !ok {
		m = &MerchantMetrics{}
		a.merchants[merchantID] = m
	}
	return m
}
