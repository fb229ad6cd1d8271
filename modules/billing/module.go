package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/authgate"
	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
	"github.com/dmitrymomot/billingkit/pkg/metrics"
	"github.com/dmitrymomot/billingkit/pkg/settlement"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// Config holds module settings loaded from the environment.
type Config struct {
	// FeePercent is the initial platform fee applied by the settlement
	// engine.
	FeePercent uint8 `env:"BILLING_FEE_PERCENT" envDefault:"2"`

	// PlatformAccount is the ledger account credited with platform fees.
	PlatformAccount string `env:"BILLING_PLATFORM_ACCOUNT,required"`

	// PlansFile optionally seeds the plan catalog from a YAML file on
	// startup.
	PlansFile string `env:"BILLING_PLANS_FILE"`
}

// Module bundles the billing services the router exposes.
type Module struct {
	Ledger        ledger.Ledger
	Catalog       catalog.Service
	Subscriptions subscription.Service
	Settlement    settlement.Engine
	Metrics       *metrics.Aggregator
	Gate          authgate.Gate
}

// NewFromConfig assembles a fully wired Module from environment settings,
// using in-memory stores. The transferer handles outbound payouts and the
// gate answers authorization; both come from the host application. If
// cfg.PlansFile is set the catalog is seeded from it.
func NewFromConfig(ctx context.Context, cfg Config, transferer ledger.Transferer, gate authgate.Gate) (Module, error) {
	platformAccount, err := uuid.Parse(cfg.PlatformAccount)
	if err != nil {
		return Module{}, fmt.Errorf("billing: invalid platform account %q: %w", cfg.PlatformAccount, err)
	}
	if cfg.FeePercent > 100 {
		return Module{}, settlement.ErrInvalidFeePercent
	}

	led := ledger.New(transferer)
	catalogStore := catalog.NewMemStore()
	cat := catalog.NewService(catalogStore, gate)
	eng := settlement.NewEngine(led, settlement.NewMemStore(), gate, platformAccount,
		settlement.WithFeePercent(cfg.FeePercent))
	agg := metrics.NewAggregator()
	subs := subscription.NewService(subscription.NewMemStore(), cat, led, eng, agg)

	if cfg.PlansFile != "" {
		if _, err := catalog.LoadPlansFile(ctx, catalogStore, cfg.PlansFile); err != nil {
			return Module{}, err
		}
	}

	return Module{
		Ledger:        led,
		Catalog:       cat,
		Subscriptions: subs,
		Settlement:    eng,
		Metrics:       agg,
		Gate:          gate,
	}, nil
}

// validate panics on missing dependencies so misconfigured modules fail at
// startup, not on the first request.
func (m Module) validate() {
	if m.Ledger == nil {
		panic("billing: Ledger is required")
	}
	if m.Catalog == nil {
		panic("billing: Catalog is required")
	}
	if m.Subscriptions == nil {
		panic("billing: Subscriptions is required")
	}
	if m.Settlement == nil {
		panic("billing: Settlement is required")
	}
	if m.Metrics == nil {
		panic("billing: Metrics is required")
	}
	if m.Gate == nil {
		panic("billing: Gate is required")
	}
}
