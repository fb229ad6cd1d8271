package settlement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TransactionStore is the append-only audit log. Append assigns a
// monotonically increasing ID under the same lock that guards the log;
// stored records are immutable.
type TransactionStore interface {
	Append(ctx context.Context, tx *Transaction) (int64, error)
	Get(ctx context.Context, id int64) (*Transaction, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Transaction, error)
}

type MemStore struct {
	mu           sync.Mutex
	seq          int64
	transactions []Transaction
}

// NewMemStore returns an in-memory TransactionStore. The concrete type is
// exported because it additionally implements the revenue source consumed
// by metrics reconciliation.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Append(ctx context.Context, tx *Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	stored := *tx
	stored.ID = s.seq
	s.transactions = append(s.transactions, stored)

	return stored.ID, nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// IDs are dense and start at 1, so the slice index is id-1.
	if id < 1 || id > s.seq {
		return nil, ErrTransactionNotFound
	}
	tx := s.transactions[id-1]
	return &tx, nil
}

func (s *MemStore) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Transaction
	for _, tx := range s.transactions {
		if tx.MerchantID == merchantID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// MerchantRevenue sums successful settlement amounts for a merchant, net of
// reversals. It backs the metrics reconciliation path.
func (s *MemStore) MerchantRevenue(ctx context.Context, merchantID uuid.UUID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total uint64
	for _, tx := range s.transactions {
		if tx.MerchantID != merchantID {
			continue
		}
		switch tx.Status {
		case StatusSuccessful:
			total += tx.Amount
		case StatusReversed:
			// Every reversal pairs an earlier successful entry, so the
			// subtraction cannot underflow.
			total -= tx.Amount
		}
	}
	return total, nil
}
