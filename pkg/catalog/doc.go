// Package catalog manages the merchant plan catalog consumed by the billing
// core: plan creation, owner-only mutations (price, active flag), and the
// subscriber count the subscription state machine maintains.
//
// Plan creation requires the merchant role from the injected authgate.Gate;
// ownership of later mutations is derived from the stored plan record rather
// than caller-supplied input. Plan IDs come from a monotonic sequence owned
// by the store. A YAML file source is available for seeding a catalog on
// startup.
package catalog
