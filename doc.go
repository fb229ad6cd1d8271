// Package billingkit provides the building blocks for recurring-revenue
// billing: an escrow ledger, a plan catalog, a subscription lifecycle service,
// a settlement engine with platform fee splits, and per-merchant metrics.
//
// Billing is pull-based. No scheduler runs in the background; a subscription
// records when its next period is due and the subscriber (or an operator on
// their behalf) triggers payment. Money moves inside a single escrow ledger
// whose invariant is simple to audit: everything deposited is either still on
// an account balance or has been withdrawn.
//
// Key Packages:
//
//   - pkg/ledger: escrow balances with rollback-safe withdrawals
//   - pkg/catalog: merchant-owned subscription plans
//   - pkg/subscription: the subscribe / pay / cancel lifecycle
//   - pkg/settlement: fee splits and the append-only transaction log
//   - pkg/metrics: incremental per-merchant aggregates with reconciliation
//   - pkg/authgate: the authorization interface the services consume
//   - modules/billing: an HTTP surface wiring the services together
//
// Basic Usage:
//
//	gate := authgate.NewMemoryGate()
//	led := ledger.New(payoutTransferer)
//	cat := catalog.NewService(catalog.NewMemStore(), gate)
//	eng := settlement.NewEngine(led, settlement.NewMemStore(), gate, platformAccount)
//	agg := metrics.NewAggregator()
//	subs := subscription.NewService(subscription.NewMemStore(), cat, led, eng, agg)
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billing.Router(billing.Module{
//		Ledger:        led,
//		Catalog:       cat,
//		Subscriptions: subs,
//		Settlement:    eng,
//		Metrics:       agg,
//		Gate:          gate,
//	}))
//
// Every service accepts its dependencies as interfaces and returns concrete
// types, so stores can be swapped between the in-memory implementations and
// the PostgreSQL-backed ones without touching business logic.
package billingkit
