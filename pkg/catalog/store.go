package catalog

import (
	"context"
	"sync"
)

// Store defines plan persistence. Implementations own the monotonic plan ID
// sequence: Create assigns the next ID under the same lock that guards the
// records it indexes.
type Store interface {
	// Create persists a new plan, assigns its ID and returns it.
	Create(ctx context.Context, plan *Plan) (int64, error)

	// Get retrieves a plan by ID. Returns ErrPlanNotFound if absent.
	Get(ctx context.Context, id int64) (*Plan, error)

	// Update applies mutate to the stored plan atomically. If mutate returns
	// an error the plan is left unchanged and the error is surfaced.
	Update(ctx context.Context, id int64, mutate func(*Plan) error) (*Plan, error)
}

type memStore struct {
	mu    sync.Mutex
	seq   int64
	plans map[int64]*Plan
}

// NewMemStore returns an in-memory Store.
func NewMemStore() Store {
	return &memStore{
		plans: make(map[int64]*Plan),
	}
}

func (s *memStore) Create(ctx context.Context, plan *Plan) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	stored := *plan
	stored.ID = s.seq
	s.plans[stored.ID] = &stored

	return stored.ID, nil
}

func (s *memStore) Get(ctx context.Context, id int64) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}

	// Copy so callers cannot mutate stored state without going through Update.
	clone := *plan
	return &clone, nil
}

func (s *memStore) Update(ctx context.Context, id int64, mutate func(*Plan) error) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}

	draft := *plan
	if err := mutate(&draft); err != nil {
		return nil, err
	}
	draft.ID = id
	s.plans[id] = &draft

	clone := draft
	return &clone, nil
}
