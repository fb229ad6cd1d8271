package authgate

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryGate is an in-memory Gate implementation. It is thread-safe and
// suitable for tests and single-process deployments; production systems
// typically back the Gate with their identity service.
type MemoryGate struct {
	mu     sync.RWMutex
	roles  map[uuid.UUID]map[Role]struct{}
	owners map[Resource]uuid.UUID
}

// NewMemoryGate creates an empty in-memory gate.
func NewMemoryGate() *MemoryGate {
	return &MemoryGate{
		roles:  make(map[uuid.UUID]map[Role]struct{}),
		owners: make(map[Resource]uuid.UUID),
	}
}

// Grant assigns a role to a caller.
func (g *MemoryGate) Grant(caller uuid.UUID, role Role) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.roles[caller] == nil {
		g.roles[caller] = make(map[Role]struct{})
	}
	g.roles[caller][role] = struct{}{}
}

// Revoke removes a role from a caller. Revoking an absent role is a no-op.
func (g *MemoryGate) Revoke(caller uuid.UUID, role Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roles[caller], role)
}

// SetOwner records the owner of a resource, replacing any previous owner.
func (g *MemoryGate) SetOwner(resource Resource, owner uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owners[resource] = owner
}

func (g *MemoryGate) IsOwner(ctx context.Context, resource Resource, caller uuid.UUID) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	owner, ok := g.owners[resource]
	return ok && owner == caller, nil
}

func (g *MemoryGate) HasRole(ctx context.Context, caller uuid.UUID, role Role) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.roles[caller][role]
	return ok, nil
}
