package metrics

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrSourcesNotConfigured is returned by Reconcile when the aggregator was
// not given record sources to fold over.
var ErrSourcesNotConfigured = errors.New("metrics: reconciliation sources not configured")

// Drift is the difference between maintained counters and the fold over the
// underlying records. All-zero means no drift.
type Drift struct {
	TotalSubscribers  int64
	ActiveSubscribers int64
	TotalRevenue      int64
	Churned           int64
}

// IsZero reports whether the maintained metrics match the records exactly.
func (d Drift) IsZero() bool {
	return d == Drift{}
}

// Reconciler recomputes merchant metrics from the subscription and
// transaction logs and compares them with an aggregator's incremental
// counters. It is a drift detector, not part of the primary settlement path.
type Reconciler struct {
	agg  *Aggregator
	subs SubscriptionSource
	revs RevenueSource
}

// NewReconciler creates a Reconciler over the given aggregator and sources.
func NewReconciler(agg *Aggregator, subs SubscriptionSource, revs RevenueSource) *Reconciler {
	if agg == nil {
		panic("metrics: Aggregator is required")
	}
	return &Reconciler{agg: agg, subs: subs, revs: revs}
}

// Reconcile folds the merchant's records and returns maintained-minus-actual
// deltas. PeriodRevenue is excluded: period boundaries are not recoverable
// from the transaction log alone.
func (r *Reconciler) Reconcile(ctx context.Context, merchantID uuid.UUID) (Drift, error) {
	if r.subs == nil || r.revs == nil {
		return Drift{}, ErrSourcesNotConfigured
	}

	total, active, churned, err := r.subs.MerchantSubscriptionStats(ctx, merchantID)
	if err != nil {
		return Drift{}, err
	}

	revenue, err := r.revs.MerchantRevenue(ctx, merchantID)
	if err != nil {
		return Drift{}, err
	}

	maintained := r.agg.Get(merchantID)

	return Drift{
		TotalSubscribers:  int64(maintained.TotalSubscribers) - int64(total),
		ActiveSubscribers: int64(maintained.ActiveSubscribers) - int64(active),
		TotalRevenue:      int64(maintained.TotalRevenue) - int64(revenue),
		Churned:           int64(maintained.Churned) - int64(churned),
	}, nil
}
