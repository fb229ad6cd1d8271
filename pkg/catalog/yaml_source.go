package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PlanDefinition is the YAML shape of a seeded plan.
type PlanDefinition struct {
	Merchant    string `yaml:"merchant"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       uint64 `yaml:"price"`
	Currency    string `yaml:"currency"`
	// BillingCycle uses Go duration syntax, e.g. "720h" for 30 days.
	BillingCycle    string `yaml:"billing_cycle"`
	Active          *bool  `yaml:"active"`
	SubscriberLimit uint32 `yaml:"subscriber_limit"`
}

// LoadPlansFile reads plan definitions from a YAML file and seeds them into
// the store. Intended for bootstrapping a catalog on startup; merchants
// referenced in the file must already exist. Returns the created plans in
// file order.
//
// Example file:
//
//	plans:
//	  - merchant: 0b0f7f2e-54a1-4f6e-9c27-d9c1f6b8a111
//	    name: Starter
//	    price: 1000
//	    currency: USD
//	    billing_cycle: 720h
//	    subscriber_limit: 100
func LoadPlansFile(ctx context.Context, store Store, path string) ([]*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var file struct {
		Plans []PlanDefinition `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	now := time.Now().UTC()
	plans := make([]*Plan, 0, len(file.Plans))

	for i, def := range file.Plans {
		merchantID, err := uuid.Parse(def.Merchant)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans,
				fmt.Errorf("plan %d: invalid merchant id %q: %w", i, def.Merchant, err))
		}

		cycle, err := time.ParseDuration(def.BillingCycle)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans,
				fmt.Errorf("plan %d: invalid billing cycle %q: %w", i, def.BillingCycle, err))
		}

		in := CreatePlanInput{
			Name:            def.Name,
			Description:     def.Description,
			Price:           def.Price,
			Currency:        def.Currency,
			BillingCycle:    cycle,
			SubscriberLimit: def.SubscriberLimit,
		}
		if err := in.Validate(); err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("plan %d: %w", i, err))
		}

		active := true
		if def.Active != nil {
			active = *def.Active
		}

		plan := &Plan{
			MerchantID:      merchantID,
			Name:            in.Name,
			Description:     in.Description,
			Price:           in.Price,
			Currency:        in.Currency,
			BillingCycle:    in.BillingCycle,
			Active:          active,
			SubscriberLimit: in.SubscriberLimit,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		id, err := store.Create(ctx, plan)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, err)
		}
		plan.ID = id
		plans = append(plans, plan)
	}

	return plans, nil
}
