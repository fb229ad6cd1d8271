package billing

import (
	"github.com/go-chi/chi/v5"
)

// Router mounts the billing operation surface.
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billing.Router(billing.Module{
//	    Ledger:        l,
//	    Catalog:       cat,
//	    Subscriptions: subs,
//	    Settlement:    eng,
//	    Metrics:       agg,
//	    Gate:          gate,
//	}))
func Router(m Module) chi.Router {
	m.validate()

	r := chi.NewRouter()

	r.Route("/accounts/{accountID}", func(accounts chi.Router) {
		accounts.Post("/deposit", m.handleDeposit)
		accounts.Post("/withdraw", m.handleWithdraw)
		accounts.Get("/balance", m.handleBalance)
	})

	r.Route("/plans", func(plans chi.Router) {
		plans.Post("/", m.handleCreatePlan)
		plans.Get("/{planID}", m.handleGetPlan)
	})

	r.Route("/subscriptions", func(subs chi.Router) {
		subs.Post("/", m.handleSubscribe)
		subs.Get("/{subscriptionID}", m.handleGetSubscription)
		subs.Post("/{subscriptionID}/pay", m.handlePay)
		subs.Post("/{subscriptionID}/cancel", m.handleCancel)
	})

	r.Get("/merchants/{merchantID}/metrics", m.handleMerchantMetrics)
	r.Put("/settlement/fee", m.handleSetFee)

	return r
}
