package authgate

import (
	"context"

	"github.com/google/uuid"
)

// Role is a named capability granted to a caller.
type Role string

const (
	// RoleAdmin may change process-wide billing configuration.
	RoleAdmin Role = "admin"

	// RoleMerchant marks a caller as an approved merchant who may create
	// and manage plans. Granting it is the onboarding queue's concern.
	RoleMerchant Role = "merchant"
)

// Resource identifies a protected resource, e.g. "plan:42".
type Resource string

// Gate answers the two authorization questions the billing core consumes.
// It is injected as a dependency so the ledger stays testable without a real
// authorization subsystem.
type Gate interface {
	// IsOwner reports whether caller owns the given resource.
	IsOwner(ctx context.Context, resource Resource, caller uuid.UUID) (bool, error)

	// HasRole reports whether caller holds the given role.
	HasRole(ctx context.Context, caller uuid.UUID, role Role) (bool, error)
}
