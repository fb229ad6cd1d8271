package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store persists subscription records. Create assigns a monotonic ID under
// the lock guarding the records. Records are never deleted; cancellation is
// a status change.
type Store interface {
	Create(ctx context.Context, sub *Subscription) (int64, error)
	Get(ctx context.Context, id int64) (*Subscription, error)
	Save(ctx context.Context, sub *Subscription) error
}

// MemStore is an in-memory Store. The concrete type is exported because it
// additionally implements the subscription source consumed by metrics
// reconciliation.
type MemStore struct {
	mu   sync.Mutex
	seq  int64
	subs map[int64]*Subscription
}

// NewMemStore returns an empty in-memory subscription store.
func NewMemStore() *MemStore {
	return &MemStore{
		subs: make(map[int64]*Subscription),
	}
}

func (s *MemStore) Create(ctx context.Context, sub *Subscription) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	stored := *sub
	stored.ID = s.seq
	s.subs[stored.ID] = &stored

	return stored.ID, nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrNotFound
	}

	clone := *sub
	return &clone, nil
}

func (s *MemStore) Save(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID]; !ok {
		return ErrNotFound
	}

	stored := *sub
	s.subs[sub.ID] = &stored
	return nil
}

// MerchantSubscriptionStats folds the merchant's subscription records into
// total/active/churned counters for metrics reconciliation.
func (s *MemStore) MerchantSubscriptionStats(ctx context.Context, merchantID uuid.UUID) (total, active, churned uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if sub.MerchantID != merchantID {
			continue
		}
		total++
		switch sub.Status {
		case StatusActive:
			active++
		case StatusCancelled:
			churned++
		}
	}
	return total, active, churned, nil
}
