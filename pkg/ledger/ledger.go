package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"
)

// Ledger holds escrowed balances for accounts and guarantees that every
// mutation is atomic: no operation may observe a balance mid-mutation, and a
// failed withdrawal restores the exact pre-operation state.
type Ledger interface {
	// Deposit credits an account. The account is created on first deposit.
	Deposit(ctx context.Context, account uuid.UUID, amount uint64) error

	// Withdraw debits an account and triggers the external payout. The debit
	// happens before the payout is attempted; if the payout fails the debit
	// is rolled back and ErrTransferFailed is returned.
	Withdraw(ctx context.Context, account uuid.UUID, amount uint64) error

	// Transfer atomically moves funds between two accounts. No external call
	// is involved, so there is no re-entrancy exposure.
	Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error

	// Split atomically debits from by the sum of all legs and credits each
	// leg's account. Either every leg commits or none does. Legs with a zero
	// amount are skipped.
	Split(ctx context.Context, from uuid.UUID, legs ...Leg) error

	// Balance returns the current balance of an account.
	Balance(ctx context.Context, account uuid.UUID) (uint64, error)

	// Totals returns the lifetime sums of deposited and successfully
	// withdrawn funds. At any point sum(balances) + withdrawn == deposited.
	Totals() (deposited, withdrawn uint64)
}

// Leg is one credit side of a split disbursement.
type Leg struct {
	Account uuid.UUID
	Amount  uint64
}

// Option configures the ledger during construction.
type Option func(*escrowLedger)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(l *escrowLedger) {
		if log != nil {
			l.log = log
		}
	}
}

type escrowLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]uint64
	inFlight map[uuid.UUID]struct{}

	deposited uint64
	withdrawn uint64

	transferer Transferer
	log        *slog.Logger
}

// New creates a Ledger backed by an in-memory balance map.
// Panics if transferer is nil to fail fast during initialization.
func New(transferer Transferer, opts ...Option) Ledger {
	if transferer == nil {
		panic("ledger: Transferer is required")
	}

	l := &escrowLedger{
		balances:   make(map[uuid.UUID]uint64),
		inFlight:   make(map[uuid.UUID]struct{}),
		transferer: transferer,
		log:        slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *escrowLedger) Deposit(ctx context.Context, account uuid.UUID, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, pending := l.inFlight[account]; pending {
		return ErrTransferInFlight
	}

	// The deposited counter bounds the sum of all balances, so rejecting a
	// deposit that would wrap it also keeps every balance and internal
	// credit below the uint64 limit.
	if amount > math.MaxUint64-l.deposited {
		return ErrInvalidAmount
	}

	l.balances[account] += amount
	l.deposited += amount

	l.log.DebugContext(ctx, "funds deposited",
		slog.String("account", account.String()),
		slog.Uint64("amount", amount))

	return nil
}

func (l *escrowLedger) Withdraw(ctx context.Context, account uuid.UUID, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	// Check-effects-interact: validate and debit under the lock, flag the
	// account, then release the lock for the external call. Any mutating
	// operation that touches the flagged account fails closed until the
	// payout settles.
	l.mu.Lock()
	if _, pending := l.inFlight[account]; pending {
		l.mu.Unlock()
		return ErrTransferInFlight
	}
	balance, ok := l.balances[account]
	if !ok {
		l.mu.Unlock()
		return ErrAccountNotFound
	}
	if balance < amount {
		l.mu.Unlock()
		return ErrInsufficientFunds
	}
	l.balances[account] = balance - amount
	l.inFlight[account] = struct{}{}
	l.mu.Unlock()

	transferErr := l.transferer.TransferOut(ctx, account, amount)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, account)

	if transferErr != nil {
		// Roll the debit back so the operation is all-or-nothing.
		l.balances[account] += amount
		l.log.ErrorContext(ctx, "external transfer failed, debit rolled back",
			slog.String("account", account.String()),
			slog.Uint64("amount", amount),
			slog.Any("error", transferErr))
		return errors.Join(ErrTransferFailed, transferErr)
	}

	l.withdrawn += amount

	l.log.InfoContext(ctx, "funds withdrawn",
		slog.String("account", account.String()),
		slog.Uint64("amount", amount))

	return nil
}

func (l *escrowLedger) Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSelfTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkNotInFlight(from, to); err != nil {
		return err
	}

	balance, ok := l.balances[from]
	if !ok {
		return ErrAccountNotFound
	}
	if balance < amount {
		return ErrInsufficientFunds
	}

	l.balances[from] = balance - amount
	l.balances[to] += amount

	return nil
}

func (l *escrowLedger) Split(ctx context.Context, from uuid.UUID, legs ...Leg) error {
	var total uint64
	for _, leg := range legs {
		if leg.Account == from && leg.Amount > 0 {
			return ErrSelfTransfer
		}
		total += leg.Amount
	}
	if total == 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := []uuid.UUID{from}
	for _, leg := range legs {
		accounts = append(accounts, leg.Account)
	}
	if err := l.checkNotInFlight(accounts...); err != nil {
		return err
	}

	balance, ok := l.balances[from]
	if !ok {
		return ErrAccountNotFound
	}
	if balance < total {
		return ErrInsufficientFunds
	}

	// All validation is done; both legs commit together under the lock.
	l.balances[from] = balance - total
	for _, leg := range legs {
		if leg.Amount == 0 {
			continue
		}
		l.balances[leg.Account] += leg.Amount
	}

	return nil
}

func (l *escrowLedger) Balance(ctx context.Context, account uuid.UUID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[account]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *escrowLedger) Totals() (deposited, withdrawn uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deposited, l.withdrawn
}

// checkNotInFlight must be called with the mutex held.
func (l *escrowLedger) checkNotInFlight(accounts ...uuid.UUID) error {
	for _, account := range accounts {
		if _, pending := l.inFlight[account]; pending {
			return ErrTransferInFlight
		}
	}
	return nil
}
